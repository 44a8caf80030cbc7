package test

import (
	"archive/tar"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"formula/pkg/descriptor"
	"formula/pkg/platform"
	"formula/pkg/sumfile"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// TarGz builds a gzip compressed tarball holding files.
func TarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// SHA256 returns the hex digest of data.
func SHA256(t *testing.T, data []byte) string {
	t.Helper()
	h, err := sumfile.CalculateHash(bytes.NewReader(data))
	require.NoError(t, err)
	return h
}

// ArtifactServer serves release artifacts by file name.
type ArtifactServer struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string][]byte
}

// NewArtifactServer starts a server closed at the end of the test.
func NewArtifactServer(t *testing.T) *ArtifactServer {
	s := &ArtifactServer{files: make(map[string][]byte)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		data, ok := s.files[strings.TrimPrefix(r.URL.Path, "/")]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

// Put publishes data as name and returns its URL.
func (s *ArtifactServer) Put(name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return s.URL + "/" + name
}

// Tool publishes a release of a single executable "tool" for the host
// platform and returns its descriptor. The executable prints version.
func (s *ArtifactServer) Tool(t *testing.T, name, version string) descriptor.Descriptor {
	t.Helper()

	host := platform.Host()
	data := TarGz(t, map[string]string{
		name + "_" + version + "/" + name: "#!/bin/sh\necho " + version + "\n",
	})
	url := s.Put(name+"_"+version+"_"+host.OS+"_"+host.Arch+".tar.gz", data)

	return descriptor.Descriptor{
		Name:     name,
		Desc:     "A tool",
		Homepage: "https://example.com/" + name,
		Version:  version,
		Rules: []descriptor.Rule{
			{
				Platform: platform.ForPlatform(host, false),
				URL:      url,
				SHA256:   SHA256(t, data),
				Install:  descriptor.Install{Bin: []string{name}},
			},
		},
	}
}

// WriteDescriptor writes d as JSON into a temporary directory.
func WriteDescriptor(t *testing.T, d descriptor.Descriptor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), d.Name+".json")
	require.NoError(t, descriptor.Write(d, path))
	return path
}

// Fixture returns the path of a file under pkg/descriptor/testdata or
// pkg/formula/testdata.
func Fixture(t *testing.T, name string) string {
	t.Helper()

	root := moduleRoot(t)
	for _, dir := range []string{"descriptor", "formula"} {
		path := filepath.Join(root, "pkg", dir, "testdata", name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Fatalf("fixture %s not found", name)
	return ""
}

// moduleRoot walks up from the working directory to the directory
// holding go.mod.
func moduleRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above working directory")
			return ""
		}
		dir = parent
	}
}
