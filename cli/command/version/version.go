package version

import (
	"fmt"
	"runtime"

	"formula/cli"
	"formula/cli/command"
	"formula/cli/version"

	"github.com/spf13/cobra"
)

func NewVersionCommand(formulaCli command.Cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the formula version information",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(formulaCli)
		},
	}
}

func runVersion(formulaCli command.Cli) error {
	out := formulaCli.Out()
	name := "formula"
	if version.PlatformName != "" {
		name = version.PlatformName
	}

	fmt.Fprintf(out, "%s version %s\n", name, version.Version)
	fmt.Fprintf(out, " Git commit: %s\n", version.GitCommit)
	fmt.Fprintf(out, " Built:      %s\n", version.BuildTime)
	fmt.Fprintf(out, " Go version: %s\n", version.GoVersion)
	fmt.Fprintf(out, " OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}
