package install

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"formula/internal/test"
	"formula/pkg/descriptor"
	"formula/pkg/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cli *test.FakeCli, args ...string) error {
	t.Helper()
	cmd := NewInstallCommand(cli)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestInstallAndUpgrade(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	v1 := test.WriteDescriptor(t, srv.Tool(t, "tool", "1.0.0"))
	require.NoError(t, execute(t, cli, v1))

	assert.Contains(t, cli.OutBuffer.String(), "  installed tool 1.0.0")

	data, err := os.ReadFile(filepath.Join(cli.Config.BinDir, "tool"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho 1.0.0\n", string(data))

	store, err := receipt.Read(cli.Config.ConfigDir())
	require.NoError(t, err)
	r, err := store.Get("tool")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", r.Version)
	assert.Equal(t, cli.Config.BinDir, r.BinDir)

	cli.OutBuffer.Reset()
	require.NoError(t, execute(t, cli, v1))
	assert.Contains(t, cli.OutBuffer.String(), "Already up to date.")

	cli.OutBuffer.Reset()
	v2 := test.WriteDescriptor(t, srv.Tool(t, "tool", "1.1.0"))
	require.NoError(t, execute(t, cli, v2))
	assert.Contains(t, cli.OutBuffer.String(), "  upgraded tool 1.0.0 -> 1.1.0")

	data, err = os.ReadFile(filepath.Join(cli.Config.BinDir, "tool"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho 1.1.0\n", string(data))
}

func TestInstallDryRun(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	file := test.WriteDescriptor(t, srv.Tool(t, "tool", "1.0.0"))
	require.NoError(t, execute(t, cli, "--dry-run", file))

	assert.Contains(t, cli.OutBuffer.String(), "install: tool 1.0.0\n")
	assert.NoFileExists(t, filepath.Join(cli.Config.BinDir, "tool"))
	assert.NoFileExists(t, filepath.Join(cli.Config.ConfigDir(), receipt.FileName))
}

func TestInstallFromURLIntoBinDir(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)
	binDir := filepath.Join(t.TempDir(), "custom")

	var buf bytes.Buffer
	require.NoError(t, descriptor.Encode(&buf, srv.Tool(t, "tool", "2.0.0"), descriptor.FormatJSON))
	url := srv.Put("tool.json", buf.Bytes())

	require.NoError(t, execute(t, cli, "--bin-dir", binDir, url))
	assert.FileExists(t, filepath.Join(binDir, "tool"))
}

func TestInstallConflict(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	require.NoError(t, execute(t, cli, test.WriteDescriptor(t, srv.Tool(t, "tool", "1.0.0"))))

	other := srv.Tool(t, "other", "1.0.0")
	other.Rules[0].Install.Bin = []string{"tool"}

	err := execute(t, cli, test.WriteDescriptor(t, other))
	assert.ErrorContains(t, err, "executable tool is owned by tool")
}

func TestInstallChecksumMismatch(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	d := srv.Tool(t, "tool", "1.0.0")
	d.Rules[0].SHA256 = test.SHA256(t, []byte("something else"))

	err := execute(t, cli, test.WriteDescriptor(t, d))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.NoFileExists(t, filepath.Join(cli.Config.BinDir, "tool"))
}

func TestInstallRecordsReceiptsOnPartialFailure(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	good := test.WriteDescriptor(t, srv.Tool(t, "good", "1.0.0"))
	d := srv.Tool(t, "bad", "1.0.0")
	d.Rules[0].SHA256 = test.SHA256(t, []byte("something else"))
	bad := test.WriteDescriptor(t, d)

	err := execute(t, cli, good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.Contains(t, cli.OutBuffer.String(), "  installed good 1.0.0")

	assert.FileExists(t, filepath.Join(cli.Config.BinDir, "good"))
	assert.NoFileExists(t, filepath.Join(cli.Config.BinDir, "bad"))

	store, err := receipt.Read(cli.Config.ConfigDir())
	require.NoError(t, err)
	_, err = store.Get("good")
	assert.NoError(t, err)
	_, err = store.Get("bad")
	assert.Error(t, err)
}

func TestInstallUnsupportedPlatform(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	file := test.WriteDescriptor(t, srv.Tool(t, "tool", "1.0.0"))
	err := execute(t, cli, "--platform", "darwin/386", file)
	assert.ErrorIs(t, err, descriptor.ErrUnsupportedPlatform)
}
