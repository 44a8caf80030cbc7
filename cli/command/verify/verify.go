package verify

import (
	"context"
	"fmt"

	"formula/cli"
	"formula/cli/command"
	"formula/pkg/descriptor"
	"formula/pkg/installer"
	"formula/pkg/output"

	"github.com/docker/go-units"
	"github.com/morikuni/aec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type verifyOptions struct {
	file string
}

func NewVerifyCommand(formulaCli command.Cli) *cobra.Command {
	var opts verifyOptions

	cmd := &cobra.Command{
		Use:   "verify [OPTIONS]",
		Short: "Download every artifact and check its sha256",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), formulaCli, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", descriptor.DefaultFile, "Descriptor file (.json, .yaml or .rb)")

	return cmd
}

func runVerify(ctx context.Context, formulaCli command.Cli, opts verifyOptions) error {
	d, err := command.LoadDescriptor(opts.file)
	if err != nil {
		return err
	}

	inst, err := command.NewInstaller(formulaCli, "")
	if err != nil {
		return err
	}

	var results []installer.VerifyResult
	_ = formulaCli.Progress().RunWithProgress("Verifying "+d.Name+"@"+d.Version, func() error {
		results = inst.Verify(ctx, d)
		return nil
	}, formulaCli.Err())

	failed := 0
	for _, r := range results {
		printResult(formulaCli.Output(), r)
		if !r.OK() {
			failed++
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d artifacts failed verification", failed, len(results))
	}
	return nil
}

func printResult(o *output.Output, r installer.VerifyResult) {
	label := r.Rule.Platform.String()

	switch {
	case r.OK():
		o.Prettyln(output.Join(" ",
			output.Styled("✓", aec.GreenF),
			output.Styled(label, aec.Bold),
			output.Styled(fmt.Sprintf("%s (%s)", r.Artifact, units.HumanSize(float64(r.Size))), aec.LightBlackF),
		))
	case r.Mismatch():
		o.Prettyln(output.Join(" ",
			output.Styled("✗", aec.RedF),
			output.Styled(label, aec.Bold),
			output.Styled(r.Artifact),
			output.Styled("checksum mismatch", aec.RedF),
		))
		o.Write(fmt.Sprintf("    expected %s\n    got      %s\n", r.Rule.SHA256, r.Got))
	default:
		o.Prettyln(output.Join(" ",
			output.Styled("✗", aec.RedF),
			output.Styled(label, aec.Bold),
			output.Styled(r.Err.Error(), aec.RedF),
		))
	}
}
