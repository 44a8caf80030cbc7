package generate

import (
	"io"
	"os"

	"formula/cli"
	"formula/cli/command"
	"formula/pkg/descriptor"
	"formula/pkg/formula"
	"formula/pkg/release"
	"formula/pkg/sumfile"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	configFile string
	checksums  string
	version    string
	previous   string
	output     string
	ruby       bool
}

func NewGenerateCommand(formulaCli command.Cli) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [OPTIONS]",
		Short: "Generate the descriptor of a release from its checksums file",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(formulaCli, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config-file", release.DefaultConfigFile, "Release configuration")
	flags.StringVar(&opts.checksums, "checksums", sumfile.DefaultFile, "Checksums file published with the release")
	flags.StringVar(&opts.version, "version", "", "Release version, a leading v is stripped")
	flags.StringVar(&opts.previous, "previous", "", "Descriptor of the previous release, the new one must supersede it")
	flags.StringVarP(&opts.output, "output", "o", "", "Write to a file instead of stdout")
	flags.BoolVar(&opts.ruby, "ruby", false, "Write a Homebrew formula instead of a descriptor")

	_ = cmd.MarkFlagRequired("version")

	return cmd
}

func runGenerate(formulaCli command.Cli, opts generateOptions) error {
	cfg, err := release.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}

	if _, err := os.Stat(opts.checksums); err != nil {
		return errors.Wrap(err, "checksums file")
	}
	sums, err := sumfile.Read(opts.checksums)
	if err != nil {
		return err
	}

	d, err := release.Generate(*cfg, opts.version, sums)
	if err != nil {
		return err
	}

	if opts.previous != "" {
		prev, err := command.LoadDescriptor(opts.previous)
		if err != nil {
			return err
		}
		if d, err = descriptor.Supersede(prev, d); err != nil {
			return err
		}
		logrus.WithField("previous", prev.Version).Debugf("%s %s supersedes previous release", d.Name, d.Version)
	}

	v, err := descriptor.NewValidator()
	if err != nil {
		return err
	}
	if err := descriptor.Validate(v, d); err != nil {
		return err
	}

	return command.WriteOutput(formulaCli, opts.output, func(w io.Writer) error {
		if opts.ruby {
			return formula.Render(w, d, formula.RenderOptions{Generator: formulaCli.ConfigFile().Generator})
		}
		return descriptor.Encode(w, d, descriptor.FormatFromPath(opts.output))
	})
}
