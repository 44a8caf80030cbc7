package uninstall

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"formula/internal/test"
	"formula/pkg/platform"
	"formula/pkg/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, cli *test.FakeCli) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(cli.Config.BinDir, 0o755))
	bin := filepath.Join(cli.Config.BinDir, "tool")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	store := receipt.New()
	store.Put(receipt.Receipt{
		Name:     "tool",
		Version:  "1.0.0",
		Platform: platform.MustParse("linux/amd64"),
		Bins:     []string{"tool"},
		BinDir:   cli.Config.BinDir,
	})
	require.NoError(t, store.Write(cli.Config.ConfigDir()))
	return bin
}

func execute(cli *test.FakeCli, args ...string) error {
	cmd := NewUninstallCommand(cli)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestUninstallWithoutPrompt(t *testing.T) {
	cli := test.NewFakeCli(t)
	bin := seed(t, cli)

	require.NoError(t, execute(cli, "-y", "tool"))
	assert.NoFileExists(t, bin)
	assert.Contains(t, cli.OutBuffer.String(), "  removed tool 1.0.0\n")

	store, err := receipt.Read(cli.Config.ConfigDir())
	require.NoError(t, err)
	_, err = store.Get("tool")
	assert.ErrorIs(t, err, receipt.ErrNotInstalled)
}

func TestUninstallPrompt(t *testing.T) {
	cli := test.NewFakeCli(t)
	bin := seed(t, cli)

	cli.SetInput("n\n")
	assert.ErrorContains(t, execute(cli, "tool"), "uninstall cancelled")
	assert.FileExists(t, bin)
	assert.Contains(t, cli.OutBuffer.String(), "This will remove "+bin+".")

	cli.SetInput("y\n")
	require.NoError(t, execute(cli, "tool"))
	assert.NoFileExists(t, bin)
}

func TestUninstallNotInstalled(t *testing.T) {
	cli := test.NewFakeCli(t)
	seed(t, cli)

	err := execute(cli, "-y", "tool", "other")
	assert.ErrorIs(t, err, receipt.ErrNotInstalled)
	assert.FileExists(t, filepath.Join(cli.Config.BinDir, "tool"))
}
