package parse

import (
	"io"

	"formula/cli"
	"formula/cli/command"
	"formula/pkg/descriptor"
	"formula/pkg/formula"

	"github.com/spf13/cobra"
)

type parseOptions struct {
	output string
	format string
}

func NewParseCommand(formulaCli command.Cli) *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse [OPTIONS] FORMULA",
		Short: "Convert a Homebrew formula into a descriptor",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(formulaCli, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Write the descriptor to a file instead of stdout")
	flags.StringVar(&opts.format, "format", "", `Output format ("json", "yaml"), defaults to the output file extension or json`)

	return cmd
}

func runParse(formulaCli command.Cli, path string, opts parseOptions) error {
	d, err := formula.ParseFile(path)
	if err != nil {
		return err
	}

	format := descriptor.FormatJSON
	switch {
	case opts.format != "":
		if format, err = descriptor.ParseFormat(opts.format); err != nil {
			return err
		}
	case opts.output != "" && opts.output != "-":
		format = descriptor.FormatFromPath(opts.output)
	}

	return command.WriteOutput(formulaCli, opts.output, func(w io.Writer) error {
		return descriptor.Encode(w, d, format)
	})
}
