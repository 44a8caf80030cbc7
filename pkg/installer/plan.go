package installer

import (
	"os"
	"path/filepath"
	"sort"

	"formula/pkg/descriptor"
	"formula/pkg/platform"
	"formula/pkg/receipt"

	"github.com/pkg/errors"
)

type ActionType int

const (
	ActionInstall ActionType = iota
	ActionUpgrade
	ActionReinstall
)

func (t ActionType) String() string {
	switch t {
	case ActionUpgrade:
		return "upgrade"
	case ActionReinstall:
		return "reinstall"
	default:
		return "install"
	}
}

// Action represents a single formula to be placed into the bin dir.
type Action struct {
	Type     ActionType
	Name     string
	Version  string
	Previous string // installed version, for upgrades
	Platform platform.Platform
	URL      string
	SHA256   string
	Bins     []string
}

// NewAction builds the action installing the artifact of d selected for p.
func NewAction(t ActionType, d descriptor.Descriptor, p platform.Platform) (Action, error) {
	rule, err := descriptor.Select(d, p)
	if err != nil {
		return Action{}, err
	}

	return Action{
		Type:     t,
		Name:     d.Name,
		Version:  d.Version,
		Platform: p,
		URL:      rule.URL,
		SHA256:   rule.SHA256,
		Bins:     append([]string(nil), rule.Install.Bin...),
	}, nil
}

// CalculatePlan compares the descriptors with the installed receipts and
// returns the actions needed to bring the bin dir up to date on host.
// Formulas that are installed at the same version and artifact, with
// every executable present, need no action.
func (i *Installer) CalculatePlan(store *receipt.Store, descriptors []descriptor.Descriptor, host platform.Platform) ([]Action, error) {
	var actions []Action
	seen := make(map[string]bool)

	for _, d := range descriptors {
		if seen[d.Name] {
			return nil, errors.Errorf("formula %s is listed more than once", d.Name)
		}
		seen[d.Name] = true

		actionType := ActionInstall
		var previous string

		if old, err := store.Get(d.Name); err == nil {
			rule, err := descriptor.Select(d, host)
			if err != nil {
				return nil, err
			}

			switch {
			case old.Version != d.Version || old.SHA256 != rule.SHA256:
				actionType = ActionUpgrade
				previous = old.Version
			case old.BinDir != i.binDir || !binsPresent(i.binDir, rule.Install.Bin):
				actionType = ActionReinstall
				previous = old.Version
			default:
				continue
			}
		}

		action, err := NewAction(actionType, d, host)
		if err != nil {
			return nil, err
		}
		action.Previous = previous
		actions = append(actions, action)
	}

	sort.SliceStable(actions, func(a, b int) bool {
		return actions[a].Name < actions[b].Name
	})

	return actions, nil
}

func binsPresent(binDir string, bins []string) bool {
	for _, b := range bins {
		if _, err := os.Stat(filepath.Join(binDir, b)); err != nil {
			return false
		}
	}
	return true
}
