package install

import (
	"context"
	"fmt"
	"os"

	"formula/cli/command"
	"formula/cli/version"
	"formula/pkg/descriptor"
	"formula/pkg/installer"
	"formula/pkg/platform"
	"formula/pkg/receipt"

	"github.com/docker/go-units"
	"github.com/morikuni/aec"
	"github.com/pkg/errors"
)

type RunOptions struct {
	Descriptors []descriptor.Descriptor
	Platform    platform.Platform
	BinDir      string
	DryRun      bool
	Force       bool
}

// Run installs opts.Descriptors and records their receipts.
func Run(ctx context.Context, formulaCli command.Cli, opts RunOptions) error {
	inst, err := command.NewInstaller(formulaCli, opts.BinDir)
	if err != nil {
		return err
	}

	receiptDir := formulaCli.ConfigFile().ConfigDir()
	store, err := receipt.Read(receiptDir)
	if err != nil {
		return err
	}

	plan, err := inst.CalculatePlan(store, opts.Descriptors, opts.Platform)
	if err != nil {
		return err
	}

	formulaCli.Output().Header("install", version.Version)

	if len(plan) == 0 {
		formulaCli.Out().With(aec.GreenF).Println("Already up to date.")
		return nil
	}

	if !opts.Force {
		if err := checkConflicts(store, inst.BinDir(), plan); err != nil {
			return err
		}
	}

	if opts.DryRun {
		for _, action := range plan {
			formulaCli.Out().With(aec.GreenF).Printf("%s: %s\n", action.Type, describe(action))
		}
		return nil
	}

	if err := os.MkdirAll(inst.BinDir(), 0o755); err != nil {
		return errors.Wrap(err, "failed to create bin directory")
	}
	if err := installer.CheckWritable(inst.BinDir()); err != nil {
		return err
	}

	formulaCli.Err().With(aec.GreenF).Printf("Installing %d formula(s) into %s...\n", len(plan), inst.BinDir())

	counter := formulaCli.Progress().NewCounter(formulaCli.Err(), "Installed", len(plan))
	receipts, err := inst.InstallAll(ctx, plan, func(action installer.Action) {
		counter.Step(action.Name)
	})
	counter.Done()

	actions := make(map[string]installer.Action, len(plan))
	for _, action := range plan {
		actions[action.Name] = action
	}

	// Record whatever made it into the bin dir, even when another
	// formula failed.
	for _, r := range receipts {
		store.Put(r)
		action := actions[r.Name]
		fmt.Fprintf(formulaCli.Out(), "  %s %s (%s)\n", pastTense(action.Type), describe(action), units.HumanSize(float64(r.Size)))
	}

	if len(receipts) > 0 {
		if werr := store.Write(receiptDir); werr != nil {
			return errors.Wrap(werr, "failed to save receipts")
		}
	}

	if err != nil {
		return errors.Wrap(err, "installation failed")
	}
	return nil
}

// checkConflicts refuses to replace executables another formula installed.
func checkConflicts(store *receipt.Store, binDir string, plan []installer.Action) error {
	for _, action := range plan {
		for _, bin := range action.Bins {
			if owner, ok := store.Owner(binDir, bin); ok && owner != action.Name {
				return errors.Errorf("%s: executable %s is owned by %s, use --force to overwrite", action.Name, bin, owner)
			}
		}
	}
	return nil
}

func describe(action installer.Action) string {
	if action.Type == installer.ActionUpgrade {
		return fmt.Sprintf("%s %s -> %s", action.Name, action.Previous, action.Version)
	}
	return fmt.Sprintf("%s %s", action.Name, action.Version)
}

func pastTense(t installer.ActionType) string {
	switch t {
	case installer.ActionUpgrade:
		return "upgraded"
	case installer.ActionReinstall:
		return "reinstalled"
	default:
		return "installed"
	}
}
