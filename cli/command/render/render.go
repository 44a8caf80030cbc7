package render

import (
	"io"

	"formula/cli"
	"formula/cli/command"
	"formula/pkg/descriptor"
	"formula/pkg/formula"

	"github.com/spf13/cobra"
)

type renderOptions struct {
	file      string
	output    string
	generator string
}

func NewRenderCommand(formulaCli command.Cli) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [OPTIONS]",
		Short: "Render a descriptor as a Homebrew formula",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(formulaCli, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", descriptor.DefaultFile, "Descriptor file (.json, .yaml or .rb)")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the formula to a file instead of stdout")
	flags.StringVar(&opts.generator, "generator", "", "Generator named in the formula header")

	return cmd
}

func runRender(formulaCli command.Cli, opts renderOptions) error {
	d, err := command.LoadDescriptor(opts.file)
	if err != nil {
		return err
	}

	generator := opts.generator
	if generator == "" {
		generator = formulaCli.ConfigFile().Generator
	}

	return command.WriteOutput(formulaCli, opts.output, func(w io.Writer) error {
		return formula.Render(w, d, formula.RenderOptions{Generator: generator})
	})
}
