package command

import (
	"io"
	"sync"

	"formula/cli/debug"
	cliflags "formula/cli/flags"
	"formula/cli/streams"
	"formula/cli/version"
	"formula/pkg/api"
	"formula/pkg/config"
	"formula/pkg/config/configfile"
	"formula/pkg/installer"
	"formula/pkg/output"
	"formula/pkg/progress"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Streams is an interface which exposes the standard input and output streams
type Streams interface {
	In() *streams.In
	Out() *streams.Out
	Err() *streams.Out
}

// Cli represents the formula command line client.
type Cli interface {
	Streams
	SetIn(in *streams.In)
	Apply(ops ...CLIOption) error
	ConfigFile() *configfile.ConfigFile
	Output() *output.Output
	Progress() *progress.Progress
	DownloadClient() (installer.Downloader, error)
}

// FormulaCli is an instance the formula command line client.
// Instances of the client can be returned from NewFormulaCli.
type FormulaCli struct {
	in         *streams.In
	out        *streams.Out
	err        *streams.Out
	configFile *configfile.ConfigFile
	downloader installer.Downloader

	progressOnce sync.Once
	progress     *progress.Progress
}

// NewFormulaCli returns a FormulaCli instance with all operators applied on it.
// It applies by default the standard streams.
func NewFormulaCli(ops ...CLIOption) (*FormulaCli, error) {
	defaultOps := []CLIOption{
		WithStandardStreams(),
	}
	ops = append(defaultOps, ops...)

	cli := &FormulaCli{}
	if err := cli.Apply(ops...); err != nil {
		return nil, err
	}
	return cli, nil
}

// Out returns the writer used for stdout
func (cli *FormulaCli) Out() *streams.Out {
	return cli.out
}

// Err returns the writer used for stderr
func (cli *FormulaCli) Err() *streams.Out {
	return cli.err
}

// SetIn sets the reader used for stdin
func (cli *FormulaCli) SetIn(in *streams.In) {
	cli.in = in
}

// In returns the reader used for stdin
func (cli *FormulaCli) In() *streams.In {
	return cli.in
}

// Output returns the pretty printer over stdout and stderr.
func (cli *FormulaCli) Output() *output.Output {
	return output.New(cli.out, cli.err)
}

// Progress returns the spinner shared by all commands. It is only
// animated when stderr is a terminal.
func (cli *FormulaCli) Progress() *progress.Progress {
	cli.progressOnce.Do(func() {
		cli.progress = &progress.Progress{
			ProgressColorEnabled:     cli.err.IsColorEnabled(),
			ProgressIndicatorEnabled: cli.err.IsTerminal(),
		}
	})
	return cli.progress
}

// DownloadClient returns the client used to fetch release artifacts.
func (cli *FormulaCli) DownloadClient() (installer.Downloader, error) {
	if cli.downloader != nil {
		return cli.downloader, nil
	}

	opts := api.ClientOptions{
		UserAgent: "formula-cli/" + version.Version,
	}
	if debug.IsEnabled() || logrus.IsLevelEnabled(logrus.DebugLevel) {
		opts.Log = cli.err
		opts.LogColorize = cli.err.IsColorEnabled()
	}

	client, err := api.NewClient(opts)
	if err != nil {
		return nil, err
	}
	cli.downloader = client
	return client, nil
}

// ShowHelp shows the command help.
func ShowHelp(err io.Writer) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SetOut(err)
		cmd.HelpFunc()(cmd, args)
		return nil
	}
}

// Apply all the operation on the cli
func (cli *FormulaCli) Apply(ops ...CLIOption) error {
	for _, op := range ops {
		if err := op(cli); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFile returns the ConfigFile
func (cli *FormulaCli) ConfigFile() *configfile.ConfigFile {
	if cli.configFile == nil {
		cli.configFile = config.LoadDefaultConfigFile(cli.err)
	}
	return cli.configFile
}

// Initialize runs initialization that must happen after command line
// flags are parsed.
func (cli *FormulaCli) Initialize(opts *cliflags.ClientOptions, ops ...CLIOption) error {
	for _, o := range ops {
		if err := o(cli); err != nil {
			return err
		}
	}
	if err := cliflags.SetLogLevel(opts.LogLevel); err != nil {
		return err
	}

	if opts.ConfigDir != "" {
		config.SetDir(opts.ConfigDir)
	}

	if opts.Debug {
		debug.Enable()
	}

	if cli.configFile == nil {
		cli.configFile = config.LoadDefaultConfigFile(cli.err)
	}

	return nil
}
