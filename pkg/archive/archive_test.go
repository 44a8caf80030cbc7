package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func buildTar(t *testing.T, entries []entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     0o755,
			Size:     int64(len(e.body)),
			Typeflag: e.typeflag,
			Linkname: e.linkname,
		}
		if e.typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.Typeflag != tar.TypeReg {
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

var releaseEntries = []entry{
	{name: "LICENSE", body: "MIT"},
	{name: "README.md", body: "# link-patrol"},
	{name: "link-patrol", body: "#!/bin/sh\necho patrol\n"},
}

func TestUntarCompressions(t *testing.T) {
	raw := buildTar(t, releaseEntries)

	tests := map[string][]byte{
		"plain": raw,
		"gzip":  gzipped(t, raw),
		"zstd":  zstded(t, raw),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "out")
			require.NoError(t, Untar(bytes.NewReader(data), dest))

			content, err := os.ReadFile(filepath.Join(dest, "link-patrol"))
			require.NoError(t, err)
			assert.Equal(t, "#!/bin/sh\necho patrol\n", string(content))

			fi, err := os.Stat(filepath.Join(dest, "link-patrol"))
			require.NoError(t, err)
			assert.NotZero(t, fi.Mode()&0o100)
		})
	}
}

func TestDetectCompression(t *testing.T) {
	raw := buildTar(t, releaseEntries)
	assert.Equal(t, Gzip, DetectCompression(gzipped(t, raw)))
	assert.Equal(t, Zstd, DetectCompression(zstded(t, raw)))
	assert.Equal(t, Uncompressed, DetectCompression(raw))
}

func TestDecompressStreamPassthrough(t *testing.T) {
	r, err := DecompressStream(bytes.NewBufferString("plain binary"))
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain binary", string(data))
}

func TestUntarBreakout(t *testing.T) {
	tests := map[string][]entry{
		"parent path":      {{name: "../evil", body: "x"}},
		"absolute symlink": {{name: "link", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"}},
		"escaping symlink": {{name: "dir/link", typeflag: tar.TypeSymlink, linkname: "../../evil"}},
		"escaping hardlink": {{name: "hard", typeflag: tar.TypeLink, linkname: "../evil"}},
	}

	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			dest := t.TempDir()
			err := Untar(bytes.NewReader(buildTar(t, entries)), dest)
			require.Error(t, err)
			assert.True(t, IsBreakout(err), "unexpected error: %v", err)
		})
	}
}

func TestUntarSymlinkChain(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "out")

	data := buildTar(t, []entry{
		{name: "s", typeflag: tar.TypeSymlink, linkname: "."},
		{name: "s/x", typeflag: tar.TypeSymlink, linkname: ".."},
		{name: "x/evil", body: "pwned"},
	})

	err := Untar(bytes.NewReader(data), dest)
	require.Error(t, err)
	assert.True(t, IsBreakout(err), "unexpected error: %v", err)

	_, err = os.Lstat(filepath.Join(root, "evil"))
	assert.True(t, os.IsNotExist(err))
}

func TestUntarThroughInnerSymlink(t *testing.T) {
	dest := t.TempDir()
	data := buildTar(t, []entry{
		{name: "real/", typeflag: tar.TypeDir},
		{name: "alias", typeflag: tar.TypeSymlink, linkname: "real"},
		{name: "alias/tool", body: "binary"},
		{name: "hard", typeflag: tar.TypeLink, linkname: "alias/tool"},
	})
	require.NoError(t, Untar(bytes.NewReader(data), dest))

	content, err := os.ReadFile(filepath.Join(dest, "real", "tool"))
	require.NoError(t, err)
	assert.Equal(t, "binary", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "hard"))
	require.NoError(t, err)
	assert.Equal(t, "binary", string(content))
}

func TestIsArchiveName(t *testing.T) {
	assert.True(t, IsArchiveName("link-patrol_Linux_x86_64.tar.gz"))
	assert.True(t, IsArchiveName("tool.TGZ"))
	assert.True(t, IsArchiveName("tool.tar.zst"))
	assert.False(t, IsArchiveName("tool"))
	assert.False(t, IsArchiveName("tool.zip"))
}

func TestFindFile(t *testing.T) {
	dest := t.TempDir()
	data := buildTar(t, []entry{
		{name: "link-patrol_0.4/", typeflag: tar.TypeDir},
		{name: "link-patrol_0.4/docs/link-patrol/README", body: "docs"},
		{name: "link-patrol_0.4/bin/link-patrol", body: "binary"},
	})
	require.NoError(t, Untar(bytes.NewReader(data), dest))

	path, err := FindFile(dest, "link-patrol")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "link-patrol_0.4", "bin", "link-patrol"), path)

	_, err = FindFile(dest, "missing")
	assert.ErrorContains(t, err, "missing not found in archive")

	// a directory with the binary's name does not select its contents
	docsOnly := t.TempDir()
	data = buildTar(t, []entry{
		{name: "share/tool/README", body: "docs"},
	})
	require.NoError(t, Untar(bytes.NewReader(data), docsOnly))

	_, err = FindFile(docsOnly, "tool")
	assert.ErrorContains(t, err, "tool not found in archive")
}
