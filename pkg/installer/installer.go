package installer

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"formula/pkg/archive"
	"formula/pkg/receipt"

	"github.com/opencontainers/go-digest"
	"github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrChecksumMismatch is returned when a downloaded artifact does not
// hash to the checksum recorded in its descriptor.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Downloader fetches artifacts.
type Downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

type Installer struct {
	concurrency int
	binDir      string
	cacheDir    string
	client      Downloader
	extractSem  chan struct{}
	now         func() time.Time
}

func New(binDir, cacheDir string, concurrency int, client Downloader) *Installer {
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Installer{
		client:      client,
		binDir:      binDir,
		cacheDir:    cacheDir,
		concurrency: concurrency,
		extractSem:  make(chan struct{}, max(runtime.NumCPU(), 1)),
		now:         time.Now,
	}
}

// BinDir returns the directory executables are installed into.
func (i *Installer) BinDir() string {
	return i.binDir
}

// InstallAll runs every action of plan concurrently and returns the
// receipts of the installed formulas in plan order. A failing action does
// not stop the others: the receipts of the actions that succeeded are
// returned together with the first error.
func (i *Installer) InstallAll(ctx context.Context, plan []Action, progressFn func(Action)) ([]receipt.Receipt, error) {
	if err := os.MkdirAll(i.cacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}

	receipts := make([]receipt.Receipt, len(plan))
	installed := make([]bool, len(plan))

	var g errgroup.Group
	g.SetLimit(i.concurrency)

	for idx, action := range plan {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			r, err := i.Install(ctx, action)
			if err != nil {
				return errors.Wrapf(err, "failed to install %s %s", action.Name, action.Version)
			}

			receipts[idx] = r
			installed[idx] = true
			if progressFn != nil {
				progressFn(action)
			}
			return nil
		})
	}

	err := g.Wait()

	done := make([]receipt.Receipt, 0, len(plan))
	for idx, r := range receipts {
		if installed[idx] {
			done = append(done, r)
		}
	}
	return done, err
}

// Install downloads, verifies and installs the executables of action.
// Nothing in the bin dir changes unless the artifact checksum matches.
func (i *Installer) Install(ctx context.Context, action Action) (receipt.Receipt, error) {
	if len(action.Bins) == 0 {
		return receipt.Receipt{}, errors.Errorf("%s lists no executables", action.Name)
	}

	artifactPath, err := i.ensureCached(ctx, action.URL, action.SHA256)
	if err != nil {
		return receipt.Receipt{}, err
	}

	// Limit concurrent extraction operations
	select {
	case i.extractSem <- struct{}{}:
	case <-ctx.Done():
		return receipt.Receipt{}, ctx.Err()
	}
	defer func() { <-i.extractSem }()

	sources := make(map[string]string, len(action.Bins))
	moveSources := false

	if archive.IsArchiveName(filepath.Base(artifactPath)) {
		staging, err := i.unpackToStaging(artifactPath)
		if err != nil {
			return receipt.Receipt{}, err
		}
		defer i.removeAll(staging)

		for _, bin := range action.Bins {
			src, err := archive.FindFile(staging, bin)
			if err != nil {
				return receipt.Receipt{}, err
			}
			sources[bin] = src
		}
		moveSources = true
	} else {
		if len(action.Bins) != 1 {
			return receipt.Receipt{}, errors.Errorf("artifact %s is not an archive but %d executables are listed", filepath.Base(artifactPath), len(action.Bins))
		}
		sources[action.Bins[0]] = artifactPath
	}

	if err := os.MkdirAll(i.binDir, 0o755); err != nil {
		return receipt.Receipt{}, errors.Wrap(err, "failed to create bin directory")
	}

	size, err := i.replaceBins(action.Bins, sources, moveSources)
	if err != nil {
		return receipt.Receipt{}, err
	}

	logrus.WithFields(logrus.Fields{
		"formula": action.Name,
		"version": action.Version,
		"binDir":  i.binDir,
	}).Debug("installed formula")

	return receipt.Receipt{
		Name:        action.Name,
		Version:     action.Version,
		Platform:    action.Platform,
		URL:         action.URL,
		SHA256:      action.SHA256,
		Bins:        append([]string(nil), action.Bins...),
		BinDir:      i.binDir,
		Size:        size,
		InstalledAt: i.now().UTC(),
	}, nil
}

// Uninstall removes the executables recorded in r.
func (i *Installer) Uninstall(r receipt.Receipt) error {
	for _, p := range r.BinPaths() {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove %s", p)
		}
	}
	return nil
}

func artifactName(rawURL string) string {
	name := "artifact"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}
	return name
}

func verifyDigest(artifactPath, expected string) error {
	f, err := os.Open(artifactPath)
	if err != nil {
		return errors.Wrap(err, "failed to open artifact for checksum verification")
	}
	defer f.Close()

	calculated, err := digest.SHA256.FromReader(f)
	if err != nil {
		return errors.Wrap(err, "failed to read artifact for checksum verification")
	}

	if calculated.Encoded() != expected {
		return errors.Wrapf(ErrChecksumMismatch, "expected %s, got %s", expected, calculated.Encoded())
	}

	return nil
}

// ensureCached returns the path of the verified artifact in the cache,
// downloading it first when needed.
func (i *Installer) ensureCached(ctx context.Context, url, sha string) (string, error) {
	sha = strings.ToLower(sha)
	if err := digest.SHA256.Validate(sha); err != nil {
		return "", errors.Wrapf(err, "invalid sha256 %q", sha)
	}

	dir := filepath.Join(i.cacheDir, sha)
	artifactPath := filepath.Join(dir, artifactName(url))

	if _, err := os.Stat(artifactPath); err == nil {
		if err := verifyDigest(artifactPath, sha); err == nil {
			logrus.WithField("artifact", artifactPath).Debug("using cached artifact")
			return artifactPath, nil
		}

		logrus.WithField("artifact", artifactPath).Debug("removing corrupted cache entry")
		if err := i.removeAll(artifactPath); err != nil {
			return "", errors.Wrap(err, "failed to remove corrupted cache file; cannot proceed")
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create cache directory")
	}

	f, err := os.CreateTemp(dir, ".download.*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary artifact file")
	}

	tmpPath := f.Name()
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}()

	body, _, err := i.client.Download(ctx, url)
	if err != nil {
		return "", errors.Wrapf(err, "failed to download %s", url)
	}
	defer body.Close()

	digester := digest.SHA256.Digester()
	tee := io.TeeReader(body, digester.Hash())

	if _, err := io.Copy(f, tee); err != nil {
		return "", errors.Wrap(err, "failed to write artifact to disk")
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	if calculated := digester.Digest().Encoded(); calculated != sha {
		return "", errors.Wrapf(ErrChecksumMismatch, "%s: expected %s, got %s", artifactName(url), sha, calculated)
	}

	if err := os.Rename(tmpPath, artifactPath); err != nil {
		return "", errors.Wrap(err, "failed to move artifact to cache")
	}

	return artifactPath, nil
}

// unpackToStaging extracts the archive to a temporary staging directory.
func (i *Installer) unpackToStaging(artifactPath string) (string, error) {
	staging, err := os.MkdirTemp("", "formula-staging-*")
	if err != nil {
		return "", err
	}

	file, err := os.Open(artifactPath)
	if err != nil {
		_ = os.RemoveAll(staging)
		return "", err
	}
	defer file.Close()

	if err := archive.Untar(file, staging); err != nil {
		_ = os.RemoveAll(staging)
		return "", errors.Wrap(err, "failed to extract artifact")
	}

	return staging, nil
}

type swap struct {
	target string
	backup string
}

var swapMu sync.Mutex

// replaceBins places every executable into the bin dir. Existing files
// are backed up and restored if any executable fails to install.
func (i *Installer) replaceBins(bins []string, sources map[string]string, move bool) (int64, error) {
	// two formulas may ship the same executable name
	swapMu.Lock()
	defer swapMu.Unlock()

	var (
		done []swap
		size int64
	)

	rollback := func() {
		for _, s := range done {
			_ = os.Remove(s.target)
			if s.backup != "" {
				_ = os.Rename(s.backup, s.target)
			}
		}
	}

	for _, bin := range bins {
		target := filepath.Join(i.binDir, bin)

		staged, err := i.stage(sources[bin], target, move)
		if err != nil {
			rollback()
			return 0, err
		}

		s, err := replaceFile(staged, target)
		if err != nil {
			_ = os.Remove(staged)
			rollback()
			return 0, err
		}
		done = append(done, s)

		if fi, err := os.Stat(target); err == nil {
			size += fi.Size()
		}
	}

	for _, s := range done {
		if s.backup == "" {
			continue
		}
		if err := i.removeAll(s.backup); err != nil {
			logrus.WithError(err).Warnf("failed to remove backup %s", s.backup)
		}
	}

	return size, nil
}

// stage moves or copies source next to target and makes it executable.
func (i *Installer) stage(source, target string, move bool) (string, error) {
	staged := filepath.Join(filepath.Dir(target), fmt.Sprintf(".%s.tmp.%d", filepath.Base(target), i.now().UnixNano()))

	var err error
	if move {
		err = moveFile(source, staged)
	} else {
		err = copy.Copy(source, staged)
	}
	if err != nil {
		_ = os.Remove(staged)
		return "", errors.Wrapf(err, "failed to stage %s", filepath.Base(target))
	}

	if err := os.Chmod(staged, 0o755); err != nil {
		_ = os.Remove(staged)
		return "", err
	}

	return staged, nil
}

// replaceFile atomically replaces target with staged, keeping a backup
// of the previous file.
func replaceFile(staged, target string) (swap, error) {
	s := swap{target: target}

	if fi, err := os.Lstat(target); err == nil {
		if fi.IsDir() {
			return s, errors.Errorf("cannot replace directory %s with an executable", target)
		}

		s.backup = target + ".bak." + fmt.Sprint(time.Now().UnixNano())
		if err := os.Rename(target, s.backup); err != nil {
			return s, errors.Wrap(err, "failed to move existing executable to backup")
		}
	}

	if err := os.Rename(staged, target); err != nil {
		if s.backup != "" {
			_ = os.Rename(s.backup, target)
		}
		return s, errors.Wrap(err, "failed to install new executable; rollback attempted")
	}

	return s, nil
}

// moveFile attempts an atomic rename, falling back to copy+delete if across devices.
func moveFile(source, dest string) error {
	err := os.Rename(source, dest)
	if err == nil {
		return nil
	}

	// cross-device can happen in case when same system has different volumes/mounts
	isCrossDevice := strings.Contains(err.Error(), "cross-device") ||
		strings.Contains(err.Error(), "different device") ||
		strings.Contains(err.Error(), "different disk")

	if isCrossDevice {
		if err := copy.Copy(source, dest); err != nil {
			_ = os.RemoveAll(dest)
			return errors.Wrap(err, "failed to copy executable across devices")
		}
		return os.RemoveAll(source)
	}

	return err
}

// removeAll retries deletion to handle transient file locks.
func (i *Installer) removeAll(path string) error {
	var err error
	for range 3 {
		err = os.RemoveAll(path)
		if err == nil || os.IsNotExist(err) {
			return nil
		}

		time.Sleep(100 * time.Millisecond)
	}
	return err
}
