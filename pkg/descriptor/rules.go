package descriptor

import (
	"fmt"
	"strings"

	"formula/pkg/platform"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// CheckExclusive reports every pair of rules whose platform predicates
// select a common platform.
func CheckExclusive(d Descriptor) error {
	var errs ErrorList
	for i := 0; i < len(d.Rules); i++ {
		for j := i + 1; j < len(d.Rules); j++ {
			a, b := d.Rules[i].Platform, d.Rules[j].Platform
			if a.Overlaps(b) {
				errs.AddMsg(
					fmt.Sprintf("rules[%d]", j),
					fmt.Sprintf("platform %s overlaps with rules[%d] (%s)", b, i, a),
				)
			}
		}
	}
	return errs.Err()
}

// CheckCoverage verifies that every platform of matrix is selected by
// exactly one rule.
func CheckCoverage(d Descriptor, matrix []platform.Platform) error {
	var errs ErrorList
	for _, p := range matrix {
		var matched []string
		for i, r := range d.Rules {
			if r.Platform.Matches(p) {
				matched = append(matched, fmt.Sprintf("rules[%d]", i))
			}
		}

		switch len(matched) {
		case 0:
			errs.AddMsg("rules", fmt.Sprintf("no rule for supported platform %s", p))
		case 1:
		default:
			errs.AddMsg("rules", fmt.Sprintf("platform %s is selected by %s", p, strings.Join(matched, ", ")))
		}
	}
	return errs.Err()
}

// Select returns the rule that applies to p.
func Select(d Descriptor, p platform.Platform) (Rule, error) {
	var found []Rule
	for _, r := range d.Rules {
		if r.Platform.Matches(p) {
			found = append(found, r)
		}
	}

	switch len(found) {
	case 0:
		return Rule{}, errors.Wrapf(ErrUnsupportedPlatform, "%s %s has no artifact for %s", d.Name, d.Version, p)
	case 1:
		return found[0], nil
	default:
		return Rule{}, errors.Wrapf(ErrAmbiguousPlatform, "%s %s has %d artifacts for %s", d.Name, d.Version, len(found), p)
	}
}

// Supersede checks that next is a later release of the same package as
// prev and returns a copy of it. prev is never modified.
func Supersede(prev, next Descriptor) (Descriptor, error) {
	if prev.Name != next.Name {
		return Descriptor{}, errors.Errorf("cannot supersede %s with %s", prev.Name, next.Name)
	}

	pv, err := semver.NewVersion(prev.Version)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "invalid version %q", prev.Version)
	}
	nv, err := semver.NewVersion(next.Version)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "invalid version %q", next.Version)
	}

	if !nv.GreaterThan(pv) {
		return Descriptor{}, errors.Errorf("%s %s does not supersede %s", next.Name, next.Version, prev.Version)
	}

	return next.Clone(), nil
}
