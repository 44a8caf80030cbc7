// Package archive provides helper functions for unpacking release
// artifacts.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/moby/sys/sequential"
	"github.com/sirupsen/logrus"
)

// Compression is the compression of an artifact stream.
type Compression int

const (
	Uncompressed Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1F, 0x8B, 0x08}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

	archiveSuffixes = []string{".tar.gz", ".tgz", ".tar.zst", ".tzst", ".tar"}
)

// breakoutError is used to differentiate errors related to breaking out
// of the extraction directory.
type breakoutError struct {
	err error
}

func (e breakoutError) Error() string { return e.err.Error() }

// IsBreakout reports whether err was caused by an entry escaping the
// extraction directory.
func IsBreakout(err error) bool {
	var be breakoutError
	return errors.As(err, &be)
}

// IsArchiveName reports whether name looks like a tarball.
func IsArchiveName(name string) bool {
	name = strings.ToLower(name)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// DetectCompression detects the compression algorithm of the source.
func DetectCompression(source []byte) Compression {
	switch {
	case bytes.HasPrefix(source, gzipMagic):
		return Gzip
	case bytes.HasPrefix(source, zstdMagic):
		return Zstd
	default:
		return Uncompressed
	}
}

type readCloserWrapper struct {
	io.Reader
	closer func() error
	closed atomic.Bool
}

func (r *readCloserWrapper) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		logrus.Error("subsequent attempt to close readCloserWrapper")
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logrus.Errorf("stack trace: %s", string(debug.Stack()))
		}

		return nil
	}
	if r.closer != nil {
		return r.closer()
	}
	return nil
}

var (
	bufioReader32KPool = &sync.Pool{
		New: func() interface{} { return bufio.NewReaderSize(nil, 32*1024) },
	}
)

type bufferedReader struct {
	buf *bufio.Reader
}

func newBufferedReader(r io.Reader) *bufferedReader {
	buf := bufioReader32KPool.Get().(*bufio.Reader)
	buf.Reset(r)
	return &bufferedReader{buf}
}

func (r *bufferedReader) Read(p []byte) (n int, err error) {
	if r.buf == nil {
		return 0, io.EOF
	}
	n, err = r.buf.Read(p)
	if err == io.EOF {
		r.buf.Reset(nil)
		bufioReader32KPool.Put(r.buf)
		r.buf = nil
	}
	return
}

func (r *bufferedReader) Peek(n int) ([]byte, error) {
	if r.buf == nil {
		return nil, io.EOF
	}
	return r.buf.Peek(n)
}

// DecompressStream decompresses the archive and returns a ReaderCloser
// with the decompressed stream. Uncompressed input is passed through.
func DecompressStream(archive io.Reader) (io.ReadCloser, error) {
	buf := newBufferedReader(archive)
	bs, err := buf.Peek(10)
	if err != nil && err != io.EOF {
		return nil, err
	}

	compression := DetectCompression(bs)
	logrus.WithField("compression", compression).Debug("decompressing artifact")

	switch compression {
	case Gzip:
		gzReader, err := gzip.NewReader(buf)
		if err != nil {
			return nil, err
		}
		return &readCloserWrapper{
			Reader: gzReader,
			closer: gzReader.Close,
		}, nil

	case Zstd:
		zstdReader, err := zstd.NewReader(buf)
		if err != nil {
			return nil, err
		}
		return &readCloserWrapper{
			Reader: zstdReader,
			closer: func() error {
				zstdReader.Close()
				return nil
			},
		}, nil

	default:
		return &readCloserWrapper{Reader: buf}, nil
	}
}

func createTarFile(path, extractDir string, hdr *tar.Header, reader io.Reader) error {
	// hdr.Mode is in linux format, which we can use for sycalls,
	// but for os.Foo() calls we need the mode converted to os.FileMode,
	// so use hdrInfo.Mode() (they differ for e.g. setuid bits)
	hdrInfo := hdr.FileInfo()

	switch hdr.Typeflag {
	case tar.TypeDir:
		// Create directory unless it exists as a directory already.
		// In that case we just want to merge the two
		if fi, err := os.Lstat(path); !(err == nil && fi.IsDir()) {
			if err := os.Mkdir(path, hdrInfo.Mode()|0o700); err != nil {
				return err
			}
		}

	case tar.TypeReg:
		file, err := sequential.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdrInfo.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := copyWithBuffer(file, reader); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}

	case tar.TypeLink:
		targetPath := filepath.Join(extractDir, hdr.Linkname)
		// check for hardlink breakout
		if !isWithin(extractDir, targetPath) {
			return breakoutError{fmt.Errorf("invalid hardlink %q -> %q", targetPath, hdr.Linkname)}
		}
		resolved, err := filepath.EvalSymlinks(targetPath)
		if err != nil {
			return err
		}
		if !isWithin(extractDir, resolved) {
			return breakoutError{fmt.Errorf("invalid hardlink %q -> %q", path, hdr.Linkname)}
		}
		if err := os.Link(resolved, path); err != nil {
			return err
		}

	case tar.TypeSymlink:
		// 	path 				-> hdr.Linkname = targetPath
		// e.g. /extractDir/path/to/symlink 	-> ../2/file	= /extractDir/path/2/file
		targetPath := filepath.Join(filepath.Dir(path), hdr.Linkname)
		if filepath.IsAbs(hdr.Linkname) || !isWithin(extractDir, targetPath) {
			return breakoutError{fmt.Errorf("invalid symlink %q -> %q", path, hdr.Linkname)}
		}
		if err := os.Symlink(hdr.Linkname, path); err != nil {
			return err
		}

	case tar.TypeXGlobalHeader:
		logrus.Debug("PAX Global Extended Headers found and ignored")
		return nil

	default:
		return fmt.Errorf("unhandled tar header type %d", hdr.Typeflag)
	}

	return nil
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// Unpack unpacks the decompressedArchive to dest.
func Unpack(decompressedArchive io.Reader, dest string) error {
	realDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}

	tr := tar.NewReader(decompressedArchive)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			// end of tar archive
			break
		}
		if err != nil {
			return err
		}

		// ignore XGlobalHeader early to avoid creating parent directories for them
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			logrus.Debugf("PAX Global Extended Headers found for %s and ignored", hdr.Name)
			continue
		}

		// Normalize name, for safety and for a simple is-root check
		// This keeps "../" as-is, but normalizes "/../" to "/".
		hdr.Name = filepath.Clean(hdr.Name)

		if !isWithin(dest, filepath.Join(dest, hdr.Name)) {
			return breakoutError{fmt.Errorf("%q is outside of %q", hdr.Name, dest)}
		}

		// Ensure that the parent directory exists and that symlinks
		// created by earlier entries do not lead out of dest.
		parent, err := resolveParent(realDest, hdr.Name)
		if err != nil {
			return err
		}
		path := filepath.Join(parent, filepath.Base(hdr.Name))

		// If path exits we almost always just want to remove and replace it
		// The only exception is when it is a directory *and* the file from
		// the archive is also a directory. Then we want to merge them.
		if fi, err := os.Lstat(path); err == nil {
			if fi.IsDir() && hdr.Typeflag != tar.TypeDir {
				return fmt.Errorf("cannot overwrite directory %q with non-directory %q", path, hdr.Name)
			}

			if !fi.IsDir() && hdr.Typeflag == tar.TypeDir {
				return fmt.Errorf("cannot overwrite non-directory %q with directory %q", path, hdr.Name)
			}

			if fi.IsDir() && hdr.Name == "." {
				continue
			}

			if !(fi.IsDir() && hdr.Typeflag == tar.TypeDir) {
				if err := os.RemoveAll(path); err != nil {
					return err
				}
			}
		}

		if err := createTarFile(path, realDest, hdr, tr); err != nil {
			return err
		}
	}

	return nil
}

// resolveParent creates the parent directory of name below dest and
// returns its real path. dest must already be free of symlinks.
func resolveParent(dest, name string) (string, error) {
	parentPath := filepath.Join(dest, filepath.Dir(name))

	// Find the deepest ancestor that exists; everything below it is
	// created by MkdirAll as plain directories.
	existing := parentPath
	for existing != dest {
		if _, err := os.Lstat(existing); !os.IsNotExist(err) {
			break
		}
		existing = filepath.Dir(existing)
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", err
	}
	if !isWithin(dest, resolved) {
		return "", breakoutError{fmt.Errorf("%q is outside of %q", name, dest)}
	}

	if err := os.MkdirAll(parentPath, 0o755); err != nil {
		return "", err
	}
	resolved, err = filepath.EvalSymlinks(parentPath)
	if err != nil {
		return "", err
	}
	if !isWithin(dest, resolved) {
		return "", breakoutError{fmt.Errorf("%q is outside of %q", name, dest)}
	}
	return resolved, nil
}

// Untar reads a possibly compressed tar stream from tarArchive and
// unpacks it into the directory at dest.
func Untar(tarArchive io.Reader, dest string) error {
	if tarArchive == nil {
		return fmt.Errorf("empty archive")
	}
	dest = filepath.Clean(dest)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	r, err := DecompressStream(tarArchive)
	if err != nil {
		return err
	}
	defer r.Close()

	return Unpack(r, dest)
}
