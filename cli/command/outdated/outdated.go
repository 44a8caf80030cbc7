package outdated

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"formula/cli"
	"formula/cli/command"
	"formula/cli/version"
	"formula/pkg/receipt"

	"github.com/Masterminds/semver/v3"
	"github.com/morikuni/aec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewOutdatedCommand(formulaCli command.Cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outdated FILE [FILE...]",
		Short: "Check installed formulas against newer descriptors",
		Args:  cli.RequiresMinArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutdated(cmd.Context(), formulaCli, args)
		},
	}
	return cmd
}

func runOutdated(ctx context.Context, formulaCli command.Cli, sources []string) error {
	store, err := receipt.Read(formulaCli.ConfigFile().ConfigDir())
	if err != nil {
		return err
	}

	formulaCli.Output().Header("outdated", version.Version)

	results, err := findOutdated(ctx, formulaCli, store, sources)
	if err != nil {
		return err
	}

	formulaCli.Out().WriteString("\n")

	if len(results) == 0 {
		formulaCli.Out().WriteString("Already up-to-date!\n")
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].name < results[j].name
	})

	printOutdatedList(formulaCli.Out(), formulaCli.Out().IsColorEnabled(), results)

	return nil
}

type outdatedInfo struct {
	name     string
	current  string
	latest   string
	diffType string // major, minor, patch, or unknown
}

func findOutdated(ctx context.Context, formulaCli command.Cli, store *receipt.Store, sources []string) ([]outdatedInfo, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(formulaCli.ConfigFile().Concurrency)

	counter := formulaCli.Progress().NewCounter(formulaCli.Err(), "Resolved", len(sources))
	defer counter.Done()

	var (
		mu      sync.Mutex
		results []outdatedInfo
	)

	for _, src := range sources {
		g.Go(func() error {
			d, err := command.FetchDescriptor(ctx, formulaCli, src)
			if err != nil {
				return errors.Wrapf(err, "failed to load %s", src)
			}
			counter.Step(d.Name)

			installed, err := store.Get(d.Name)
			if err != nil {
				// not installed, nothing to compare
				return nil
			}

			currentVer, err1 := semver.NewVersion(installed.Version)
			latestVer, err2 := semver.NewVersion(d.Version)

			if err1 == nil && err2 == nil && latestVer.GreaterThan(currentVer) {
				info := outdatedInfo{
					name:     d.Name,
					current:  installed.Version,
					latest:   d.Version,
					diffType: getDiffType(installed.Version, d.Version),
				}

				mu.Lock()
				results = append(results, info)
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func getDiffType(current, latest string) string {
	currV, err1 := semver.NewVersion(current)
	latestV, err2 := semver.NewVersion(latest)

	if err1 != nil || err2 != nil {
		return "unknown"
	}

	if latestV.Major() > currV.Major() {
		return "major"
	}
	if latestV.Minor() > currV.Minor() {
		return "minor"
	}
	if latestV.Patch() > currV.Patch() {
		return "patch"
	}

	return "unknown"
}

func printOutdatedList(out io.Writer, colorize bool, results []outdatedInfo) {
	c := func(a aec.ANSI, s string) string {
		if !colorize {
			return s
		}
		return a.Apply(s)
	}

	for i, r := range results {
		fmt.Fprintln(out, c(aec.Bold, r.name))

		var diffLabel string
		var severityColor aec.ANSI

		switch r.diffType {
		case "major":
			severityColor = aec.RedF
			diffLabel = "(major update)"
		case "minor":
			severityColor = aec.YellowF
			diffLabel = "(minor update)"
		case "patch":
			severityColor = aec.GreenF
			diffLabel = "(patch update)"
		default:
			severityColor = aec.DefaultF
			diffLabel = "(unknown update)"
		}

		fmt.Fprintf(out, "%s current: %s\n", c(aec.LightBlackF, "├──"), r.current)
		fmt.Fprintf(out, "%s latest:  %s %s\n",
			c(aec.LightBlackF, "└──"),
			c(severityColor, r.latest),
			c(severityColor, diffLabel),
		)

		if i < len(results)-1 {
			fmt.Fprintln(out, "")
		}
	}
}
