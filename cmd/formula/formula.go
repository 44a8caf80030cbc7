package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"formula/cli"
	"formula/cli/command"
	"formula/cli/command/commands"
	"formula/cli/version"
	"formula/pkg/output"

	"github.com/docker/docker/errdefs"
	"github.com/morikuni/aec"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	formulaCli, err := command.NewFormulaCli()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logrus.SetOutput(formulaCli.Err())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runFormula(ctx, formulaCli, os.Args[1:]); err != nil {
		if !errdefs.IsCancelled(err) {
			formulaCli.Output().PrettyErrorln(output.Styled(err.Error(), aec.RedF))
		}
		os.Exit(1)
	}
}

func runFormula(ctx context.Context, formulaCli *command.FormulaCli, args []string) error {
	tcmd := newFormulaCommand(formulaCli)
	tcmd.SetArgs(args)

	cmd, args, err := tcmd.HandleGlobalFlags()
	if err != nil {
		return err
	}

	if err := tcmd.Initialize(); err != nil {
		return err
	}

	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newFormulaCommand(formulaCli *command.FormulaCli) *cli.TopLevelCommand {
	cmd := &cobra.Command{
		Use:              "formula [OPTIONS] COMMAND [ARG...]",
		Short:            "Package release descriptors for prebuilt binaries",
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return command.ShowHelp(formulaCli.Out())(cmd, args)
			}
			return fmt.Errorf("formula: unknown command: formula %s\n\nRun 'formula --help' for more information on a command", args[0])
		},
		Version: fmt.Sprintf("%s, build %s", version.Version, version.GitCommit),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   false,
			HiddenDefaultCmd:    true,
			DisableDescriptions: true,
		},
	}
	cmd.SetOut(formulaCli.Out())
	cmd.SetErr(formulaCli.Err())

	opts, _ := cli.SetupRootCommand(cmd)
	cmd.Flags().BoolP("version", "v", false, "Print version information and quit")

	commands.AddCommands(cmd, formulaCli)
	cli.DisableFlagsInUseLine(cmd)

	return cli.NewTopLevelCommand(cmd, formulaCli, opts, cmd.Flags())
}
