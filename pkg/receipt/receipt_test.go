package receipt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"formula/pkg/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(name string) Receipt {
	return Receipt{
		Name:        name,
		Version:     "0.4",
		Platform:    platform.MustParse("linux/amd64"),
		URL:         "https://example.com/" + name + ".tar.gz",
		SHA256:      "7e6f97fa89023a2a6efc4b38d584a45efc53e6cbf547435c123cae44346a40c6",
		Bins:        []string{name},
		BinDir:      "/home/user/.local/bin",
		InstalledAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestReadMissing(t *testing.T) {
	store, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, store.ReceiptVersion)
	assert.Empty(t, store.Formulas)
}

func TestWriteRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")

	store := New()
	store.Put(sample("link-patrol"))
	store.Put(sample("tool10"))
	store.Put(sample("tool2"))
	require.NoError(t, store.Write(dir))

	got, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, store.Formulas, got.Formulas)

	var names []string
	for _, r := range got.List() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"link-patrol", "tool2", "tool10"}, names)

	r, err := got.Get("link-patrol")
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/user/.local/bin/link-patrol"}, r.BinPaths())

	owner, ok := got.Owner("/home/user/.local/bin", "tool2")
	assert.True(t, ok)
	assert.Equal(t, "tool2", owner)
}

func TestRemove(t *testing.T) {
	store := New()
	store.Put(sample("link-patrol"))

	require.NoError(t, store.Remove("link-patrol"))
	assert.ErrorIs(t, store.Remove("link-patrol"), ErrNotInstalled)

	_, err := store.Get("link-patrol")
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestReadNewerVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"receiptVersion": 2, "formulas": {}}`), 0o644))

	_, err := Read(dir)
	assert.ErrorContains(t, err, "upgrade required")
}
