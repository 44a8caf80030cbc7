package version

import (
	"testing"

	"formula/cli/version"
	"formula/internal/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	cli := test.NewFakeCli(t)

	cmd := NewVersionCommand(cli)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, cli.OutBuffer.String(), "formula version "+version.Version+"\n")
	assert.Contains(t, cli.OutBuffer.String(), " Go version: ")
}
