// Package test holds helpers shared by the command tests.
package test

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"formula/cli/command"
	"formula/pkg/config"
	"formula/pkg/config/configfile"

	"github.com/stretchr/testify/require"
)

// FakeCli is a FormulaCli writing to buffers, with its configuration and
// bin dir inside a temporary directory.
type FakeCli struct {
	*command.FormulaCli
	OutBuffer *bytes.Buffer
	ErrBuffer *bytes.Buffer
	Config    *configfile.ConfigFile
}

// NewFakeCli returns a FakeCli. Extra options are applied last.
func NewFakeCli(t *testing.T, ops ...command.CLIOption) *FakeCli {
	t.Helper()

	root := t.TempDir()
	cfg := configfile.New(filepath.Join(root, "config", config.ConfigFileName))
	cfg.BinDir = filepath.Join(root, "bin")
	cfg.CacheDir = filepath.Join(root, "cache")
	cfg.SetDefaults()

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	defaults := []command.CLIOption{
		command.WithInputStream(io.NopCloser(strings.NewReader(""))),
		command.WithOutputStream(outBuf),
		command.WithErrorStream(errBuf),
		command.WithConfigFile(cfg),
	}

	cli, err := command.NewFormulaCli(append(defaults, ops...)...)
	require.NoError(t, err)

	return &FakeCli{
		FormulaCli: cli,
		OutBuffer:  outBuf,
		ErrBuffer:  errBuf,
		Config:     cfg,
	}
}

// SetInput replaces stdin with s.
func (c *FakeCli) SetInput(s string) {
	_ = c.Apply(command.WithInputStream(io.NopCloser(strings.NewReader(s))))
}
