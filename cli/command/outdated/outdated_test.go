package outdated

import (
	"testing"

	"formula/internal/test"
	"formula/pkg/platform"
	"formula/pkg/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutdated(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	store := receipt.New()
	store.Put(receipt.Receipt{Name: "tool", Version: "1.0.0", Platform: platform.Host(), Bins: []string{"tool"}})
	require.NoError(t, store.Write(cli.Config.ConfigDir()))

	newer := test.WriteDescriptor(t, srv.Tool(t, "tool", "1.2.0"))
	notInstalled := test.WriteDescriptor(t, srv.Tool(t, "other", "3.0.0"))

	cmd := NewOutdatedCommand(cli)
	cmd.SetArgs([]string{newer, notInstalled})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, cli.OutBuffer.String(),
		"tool\n├── current: 1.0.0\n└── latest:  1.2.0 (minor update)\n")
}

func TestOutdatedUpToDate(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	store := receipt.New()
	store.Put(receipt.Receipt{Name: "tool", Version: "1.2.0", Platform: platform.Host(), Bins: []string{"tool"}})
	require.NoError(t, store.Write(cli.Config.ConfigDir()))

	cmd := NewOutdatedCommand(cli)
	cmd.SetArgs([]string{test.WriteDescriptor(t, srv.Tool(t, "tool", "1.2.0"))})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, cli.OutBuffer.String(), "Already up-to-date!\n")
}

func TestGetDiffType(t *testing.T) {
	tests := []struct {
		current, latest, want string
	}{
		{"1.0.0", "2.0.0", "major"},
		{"0.3", "0.4", "minor"},
		{"1.2.3", "1.2.4", "patch"},
		{"1.2.3", "1.2.3-rc.1", "unknown"},
		{"dev", "1.0.0", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getDiffType(tt.current, tt.latest), tt.current+" -> "+tt.latest)
	}
}
