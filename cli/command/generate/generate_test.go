package generate

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"formula/internal/test"
	"formula/pkg/descriptor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checksums = `9dc4e6e200404579383e7168681e2bb2d39ae6c4e909560aa2785d10e3c24739  link-patrol_Darwin_arm64.tar.gz
0015eccf06ce1f29f8f6a61698fec646470778f83fab8b83aa041c2ba27aa9b9  link-patrol_Darwin_x86_64.tar.gz
52652f358cdee53e00eeec0e81afbcb0efd8a8a63a1dd987b9a8a6f731c1952d  link-patrol_Linux_arm64.tar.gz
7e6f97fa89023a2a6efc4b38d584a45efc53e6cbf547435c123cae44346a40c6  link-patrol_Linux_x86_64.tar.gz
`

const releaseConfig = `name: link-patrol
desc: Detect dead URLs in markdown files
repository: rednafi/link-patrol
`

func writeRelease(t *testing.T) (configFile, sumsFile string) {
	t.Helper()
	dir := t.TempDir()
	configFile = filepath.Join(dir, ".formula.yaml")
	sumsFile = filepath.Join(dir, "checksums.txt")
	require.NoError(t, os.WriteFile(configFile, []byte(releaseConfig), 0o644))
	require.NoError(t, os.WriteFile(sumsFile, []byte(checksums), 0o644))
	return configFile, sumsFile
}

func TestGenerateRuby(t *testing.T) {
	configFile, sumsFile := writeRelease(t)
	cli := test.NewFakeCli(t)
	cli.Config.Generator = "GoReleaser"

	cmd := NewGenerateCommand(cli)
	cmd.SetArgs([]string{"--config-file", configFile, "--checksums", sumsFile, "--version", "v0.4", "--ruby"})
	require.NoError(t, cmd.Execute())

	want, err := os.ReadFile(test.Fixture(t, "link-patrol.rb"))
	require.NoError(t, err)
	assert.Equal(t, string(want), cli.OutBuffer.String())
}

func TestGenerateDescriptorSupersedes(t *testing.T) {
	configFile, sumsFile := writeRelease(t)
	out := filepath.Join(t.TempDir(), "link-patrol.yaml")

	prev, err := descriptor.Read(test.Fixture(t, "link-patrol.json"))
	require.NoError(t, err)
	prev.Version = "0.3"
	prevFile := test.WriteDescriptor(t, *prev)

	cmd := NewGenerateCommand(test.NewFakeCli(t))
	cmd.SetArgs([]string{
		"--config-file", configFile, "--checksums", sumsFile,
		"--version", "0.4", "--previous", prevFile, "-o", out,
	})
	require.NoError(t, cmd.Execute())

	got, err := descriptor.Read(out)
	require.NoError(t, err)

	want, err := descriptor.Read(test.Fixture(t, "link-patrol.json"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGenerateErrors(t *testing.T) {
	configFile, sumsFile := writeRelease(t)

	tests := []struct {
		name string
		args []string
		err  string
	}{
		{
			name: "not newer than previous",
			args: []string{"--config-file", configFile, "--checksums", sumsFile, "--version", "0.4", "--previous", test.Fixture(t, "link-patrol.json")},
			err:  "does not supersede",
		},
		{
			name: "missing checksums file",
			args: []string{"--config-file", configFile, "--checksums", filepath.Join(t.TempDir(), "nope.txt"), "--version", "0.4"},
			err:  "checksums file",
		},
		{
			name: "missing version",
			args: []string{"--config-file", configFile, "--checksums", sumsFile},
			err:  `required flag(s) "version" not set`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewGenerateCommand(test.NewFakeCli(t))
			cmd.SetArgs(tt.args)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			assert.ErrorContains(t, cmd.Execute(), tt.err)
		})
	}
}
