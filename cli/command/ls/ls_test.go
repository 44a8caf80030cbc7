package ls

import (
	"testing"

	"formula/internal/test"
	"formula/pkg/platform"
	"formula/pkg/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLs(t *testing.T) {
	cli := test.NewFakeCli(t)

	store := receipt.New()
	for _, name := range []string{"tool10", "tool2"} {
		store.Put(receipt.Receipt{
			Name:     name,
			Version:  "1.0.0",
			Platform: platform.MustParse("linux/amd64"),
			Bins:     []string{name},
			BinDir:   "/opt/bin",
			Size:     10,
		})
	}
	require.NoError(t, store.Write(cli.Config.ConfigDir()))

	cmd := NewLsCommand(cli)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t,
		"├── tool2@1.0.0 [linux/amd64] /opt/bin/tool2, 10B\n"+
			"└── tool10@1.0.0 [linux/amd64] /opt/bin/tool10, 10B\n",
		cli.OutBuffer.String())

	cli.OutBuffer.Reset()
	cmd = NewLsCommand(cli)
	cmd.SetArgs([]string{"-q"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "tool2\ntool10\n", cli.OutBuffer.String())
}

func TestLsEmpty(t *testing.T) {
	cli := test.NewFakeCli(t)

	cmd := NewLsCommand(cli)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "No formulas installed.\n", cli.OutBuffer.String())
}
