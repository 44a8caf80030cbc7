package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestArgValidators(t *testing.T) {
	cmd := &cobra.Command{Use: "uninstall NAME...", Short: "Remove formulas"}

	assert.NoError(t, NoArgs(cmd, nil))
	assert.ErrorContains(t, NoArgs(cmd, []string{"x"}), "accepts no arguments")

	assert.NoError(t, RequiresMinArgs(1)(cmd, []string{"gh"}))
	assert.ErrorContains(t, RequiresMinArgs(1)(cmd, nil), "requires at least 1 argument.")

	assert.NoError(t, ExactArgs(2)(cmd, []string{"a", "b"}))
	assert.ErrorContains(t, ExactArgs(2)(cmd, []string{"a"}), "requires exactly 2 arguments.")
}
