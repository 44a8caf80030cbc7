package install

import (
	"context"

	"formula/cli/command"
	"formula/pkg/descriptor"

	"github.com/spf13/cobra"
)

type installOptions struct {
	binDir   string
	platform string
	dryRun   bool
	force    bool
}

func NewInstallCommand(formulaCli command.Cli) *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "install [OPTIONS] [FILE...]",
		Short: "Install the executables of one or more formulas",
		Long: "Install the executables of one or more formulas.\n\n" +
			"Each FILE is a Homebrew formula (.rb) or a descriptor (.json, .yaml),\n" +
			"either a local path or an http(s) URL.\n" +
			"Without arguments " + descriptor.DefaultFile + " is installed.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), formulaCli, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.binDir, "bin-dir", "", "Directory to install executables into, defaults to the configured bin dir")
	flags.StringVar(&opts.platform, "platform", "", "Install for another platform (os/arch)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the plan without installing anything")
	flags.BoolVar(&opts.force, "force", false, "Overwrite executables owned by other formulas")

	return cmd
}

func runInstall(ctx context.Context, formulaCli command.Cli, opts installOptions, files []string) error {
	if len(files) == 0 {
		files = []string{descriptor.DefaultFile}
	}

	descriptors := make([]descriptor.Descriptor, 0, len(files))
	for _, f := range files {
		d, err := command.FetchDescriptor(ctx, formulaCli, f)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, d)
	}

	target, err := command.TargetPlatform(opts.platform)
	if err != nil {
		return err
	}

	return Run(ctx, formulaCli, RunOptions{
		Descriptors: descriptors,
		Platform:    target,
		BinDir:      opts.binDir,
		DryRun:      opts.dryRun,
		Force:       opts.force,
	})
}
