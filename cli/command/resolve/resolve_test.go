package resolve

import (
	"io"
	"testing"

	"formula/internal/test"
	"formula/pkg/descriptor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cli := test.NewFakeCli(t)

	cmd := NewResolveCommand(cli)
	cmd.SetArgs([]string{"-f", test.Fixture(t, "link-patrol.rb"), "--platform", "linux/arm64"})
	require.NoError(t, cmd.Execute())

	out := cli.OutBuffer.String()
	assert.Contains(t, out, "platform: linux/arm64\n")
	assert.Contains(t, out, "url:      https://github.com/rednafi/link-patrol/releases/download/v0.4/link-patrol_Linux_arm64.tar.gz\n")
	assert.Contains(t, out, "sha256:   52652f358cdee53e00eeec0e81afbcb0efd8a8a63a1dd987b9a8a6f731c1952d\n")
	assert.Contains(t, out, "bin:      link-patrol\n")
}

func TestResolveUnsupported(t *testing.T) {
	cmd := NewResolveCommand(test.NewFakeCli(t))
	cmd.SetArgs([]string{"-f", test.Fixture(t, "link-patrol.json"), "--platform", "linux/arm"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, descriptor.ErrUnsupportedPlatform)
}
