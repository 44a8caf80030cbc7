package command

import (
	"io"

	"formula/cli/streams"
	"formula/pkg/config/configfile"
	"formula/pkg/installer"

	"github.com/moby/term"
)

// CLIOption is a functional argument to apply options to a [FormulaCli]. These
// options can be passed to [NewFormulaCli] to initialize a new CLI, or
// applied with [FormulaCli.Initialize] or [FormulaCli.Apply].
type CLIOption func(cli *FormulaCli) error

// WithStandardStreams sets a cli in, out and err streams with the standard streams.
func WithStandardStreams() CLIOption {
	return func(cli *FormulaCli) error {
		// Set terminal emulation based on platform as required.
		stdin, stdout, stderr := term.StdStreams()
		cli.in = streams.NewIn(stdin)
		cli.out = streams.NewOut(stdout)
		cli.err = streams.NewOut(stderr)
		return nil
	}
}

// WithCombinedStreams uses the same stream for the output and error streams.
func WithCombinedStreams(combined io.Writer) CLIOption {
	return func(cli *FormulaCli) error {
		s := streams.NewOut(combined)
		cli.out = s
		cli.err = s
		return nil
	}
}

// WithInputStream sets a cli input stream.
func WithInputStream(in io.ReadCloser) CLIOption {
	return func(cli *FormulaCli) error {
		cli.in = streams.NewIn(in)
		return nil
	}
}

// WithOutputStream sets a cli output stream.
func WithOutputStream(out io.Writer) CLIOption {
	return func(cli *FormulaCli) error {
		cli.out = streams.NewOut(out)
		return nil
	}
}

// WithErrorStream sets a cli error stream.
func WithErrorStream(err io.Writer) CLIOption {
	return func(cli *FormulaCli) error {
		cli.err = streams.NewOut(err)
		return nil
	}
}

// WithConfigFile sets the configuration instead of loading it from disk.
func WithConfigFile(cfg *configfile.ConfigFile) CLIOption {
	return func(cli *FormulaCli) error {
		cli.configFile = cfg
		return nil
	}
}

// WithDownloader replaces the HTTP download client.
func WithDownloader(d installer.Downloader) CLIOption {
	return func(cli *FormulaCli) error {
		cli.downloader = d
		return nil
	}
}
