package resolve

import (
	"fmt"
	"strings"

	"formula/cli"
	"formula/cli/command"
	"formula/pkg/descriptor"

	"github.com/spf13/cobra"
)

type resolveOptions struct {
	file     string
	platform string
}

func NewResolveCommand(formulaCli command.Cli) *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve [OPTIONS]",
		Short: "Show the artifact a platform would install",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(formulaCli, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", descriptor.DefaultFile, "Descriptor file (.json, .yaml or .rb)")
	flags.StringVar(&opts.platform, "platform", "", "Target platform (os/arch), defaults to the host")

	return cmd
}

func runResolve(formulaCli command.Cli, opts resolveOptions) error {
	d, err := command.LoadDescriptor(opts.file)
	if err != nil {
		return err
	}

	target, err := command.TargetPlatform(opts.platform)
	if err != nil {
		return err
	}

	rule, err := descriptor.Select(d, target)
	if err != nil {
		return err
	}

	out := formulaCli.Out()
	fmt.Fprintf(out, "platform: %s\n", target)
	fmt.Fprintf(out, "rule:     %s\n", rule.Platform)
	fmt.Fprintf(out, "url:      %s\n", rule.URL)
	fmt.Fprintf(out, "sha256:   %s\n", rule.SHA256)
	fmt.Fprintf(out, "bin:      %s\n", strings.Join(rule.Install.Bin, ", "))

	return nil
}
