package uninstall

import (
	"context"
	"fmt"
	"strings"

	"formula/cli"
	"formula/cli/command"
	"formula/cli/version"
	"formula/pkg/receipt"

	"github.com/morikuni/aec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type uninstallOptions struct {
	yes bool
}

func NewUninstallCommand(formulaCli command.Cli) *cobra.Command {
	var opts uninstallOptions

	cmd := &cobra.Command{
		Use:     "uninstall [OPTIONS] NAME [NAME...]",
		Short:   "Remove installed formulas",
		Aliases: []string{"remove", "rm"},
		Args:    cli.RequiresMinArgs(1),
		Example: `  formula uninstall link-patrol`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUninstall(cmd.Context(), formulaCli, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Do not prompt for confirmation")

	return cmd
}

func runUninstall(ctx context.Context, formulaCli command.Cli, opts uninstallOptions, names []string) error {
	receiptDir := formulaCli.ConfigFile().ConfigDir()
	store, err := receipt.Read(receiptDir)
	if err != nil {
		return err
	}

	receipts := make([]receipt.Receipt, 0, len(names))
	for _, name := range names {
		r, err := store.Get(name)
		if err != nil {
			return err
		}
		receipts = append(receipts, r)
	}

	formulaCli.Output().Header("uninstall", version.Version)

	if !opts.yes {
		var paths []string
		for _, r := range receipts {
			paths = append(paths, r.BinPaths()...)
		}
		msg := fmt.Sprintf("This will remove %s.\nAre you sure you want to continue?", strings.Join(paths, ", "))
		ok, err := command.PromptForConfirmation(ctx, formulaCli.In(), formulaCli.Out(), msg)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("uninstall cancelled")
		}
	}

	inst, err := command.NewInstaller(formulaCli, "")
	if err != nil {
		return err
	}

	for _, r := range receipts {
		if err := inst.Uninstall(r); err != nil {
			return err
		}
		if err := store.Remove(r.Name); err != nil {
			return err
		}
		formulaCli.Out().With(aec.GreenF).Printf("  removed %s %s\n", r.Name, r.Version)
	}

	return store.Write(receiptDir)
}
