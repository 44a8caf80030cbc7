package ls

import (
	"fmt"
	"strings"

	"formula/cli"
	"formula/cli/command"
	"formula/pkg/receipt"

	"github.com/docker/go-units"
	"github.com/morikuni/aec"
	"github.com/spf13/cobra"
)

type lsOptions struct {
	quiet bool
}

func NewLsCommand(formulaCli command.Cli) *cobra.Command {
	var opts lsOptions

	cmd := &cobra.Command{
		Use:     "ls [OPTIONS]",
		Short:   "List installed formulas",
		Aliases: []string{"list"},
		Args:    cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(formulaCli, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only display formula names")

	return cmd
}

func runLs(formulaCli command.Cli, opts lsOptions) error {
	store, err := receipt.Read(formulaCli.ConfigFile().ConfigDir())
	if err != nil {
		return err
	}

	receipts := store.List()
	out := formulaCli.Out()

	if opts.quiet {
		for _, r := range receipts {
			fmt.Fprintln(out, r.Name)
		}
		return nil
	}

	if len(receipts) == 0 {
		fmt.Fprintln(out, "No formulas installed.")
		return nil
	}

	colorize := out.IsColorEnabled()
	c := func(a aec.ANSI, s string) string {
		if !colorize {
			return s
		}
		return a.Apply(s)
	}

	for i, r := range receipts {
		connector := "├── "
		if i == len(receipts)-1 {
			connector = "└── "
		}

		fmt.Fprintf(out, "%s%s%s%s %s %s\n",
			connector,
			r.Name,
			c(aec.LightBlackF, "@"),
			c(aec.LightBlackF, r.Version),
			c(aec.CyanF, "["+r.Platform.String()+"]"),
			c(aec.Faint, fmt.Sprintf("%s, %s", strings.Join(r.BinPaths(), " "), units.HumanSize(float64(r.Size)))),
		)
	}

	return nil
}
