package validate

import (
	"formula/cli"
	"formula/cli/command"
	"formula/pkg/descriptor"
	"formula/pkg/output"
	"formula/pkg/platform"

	"github.com/morikuni/aec"
	"github.com/spf13/cobra"
)

type validateOptions struct {
	file       string
	platforms  []string
	noCoverage bool
}

func NewValidateCommand(formulaCli command.Cli) *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate [OPTIONS]",
		Short: "Validate a descriptor against the supported platforms",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(formulaCli, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", descriptor.DefaultFile, "Descriptor file (.json, .yaml or .rb)")
	flags.StringSliceVar(&opts.platforms, "platform", nil, "Supported platform (os/arch), defaults to the configured matrix")
	flags.BoolVar(&opts.noCoverage, "no-coverage", false, "Skip checking that every supported platform has a rule")

	return cmd
}

func runValidate(formulaCli command.Cli, opts validateOptions) error {
	d, err := command.LoadDescriptor(opts.file)
	if err != nil {
		return err
	}

	if !opts.noCoverage {
		matrix, err := matrix(formulaCli, opts.platforms)
		if err != nil {
			return err
		}
		if err := descriptor.CheckCoverage(d, matrix); err != nil {
			return err
		}
	}

	formulaCli.Output().Prettyln(output.Join(" ",
		output.Styled("✓", aec.GreenF),
		output.Styled(d.Name+"@"+d.Version, aec.Bold),
		output.Styled("is valid"),
	))
	return nil
}

func matrix(formulaCli command.Cli, flags []string) ([]platform.Platform, error) {
	if len(flags) > 0 {
		return platform.ParseList(flags)
	}
	return formulaCli.ConfigFile().Matrix()
}
