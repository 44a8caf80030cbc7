package verify

import (
	"io"
	"testing"

	"formula/internal/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	cmd := NewVerifyCommand(cli)
	cmd.SetArgs([]string{"-f", test.WriteDescriptor(t, srv.Tool(t, "tool", "1.0.0"))})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, cli.OutBuffer.String(), "✓ ")
	assert.Contains(t, cli.OutBuffer.String(), "tool_1.0.0_")
}

func TestVerifyMismatch(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	d := srv.Tool(t, "tool", "1.0.0")
	wrong := test.SHA256(t, []byte("tampered"))
	d.Rules[0].SHA256 = wrong

	cmd := NewVerifyCommand(cli)
	cmd.SetArgs([]string{"-f", test.WriteDescriptor(t, d)})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.EqualError(t, cmd.Execute(), "1 of 1 artifacts failed verification")
	assert.Contains(t, cli.OutBuffer.String(), "checksum mismatch")
	assert.Contains(t, cli.OutBuffer.String(), "    expected "+wrong+"\n")
}
