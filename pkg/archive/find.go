package archive

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/patternmatcher"
	"github.com/pkg/errors"
)

// FindFile returns the path of the first regular file below root whose
// relative path is name or ends in /name. Symlinks are followed only
// when they resolve inside root.
func FindFile(root, name string) (string, error) {
	pm, err := patternmatcher.New([]string{name, "**/" + name})
	if err != nil {
		return "", errors.Wrapf(err, "invalid file name %q", name)
	}

	var found string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		ok, err := matchesExactly(pm, rel)
		if err != nil || !ok {
			return err
		}

		if d.Type()&os.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			resolvedRoot, err := filepath.EvalSymlinks(root)
			if err != nil || !isWithin(resolvedRoot, target) {
				return nil
			}
			if fi, err := os.Stat(target); err != nil || !fi.Mode().IsRegular() {
				return nil
			}
			found = target
			return filepath.SkipAll
		}

		if !d.Type().IsRegular() {
			return nil
		}

		found = path
		return filepath.SkipAll
	})
	if err != nil {
		return "", err
	}

	if found == "" {
		return "", errors.Errorf("%s not found in archive", name)
	}
	return found, nil
}

// matchesExactly matches rel against the patterns without letting a
// matching parent directory select its children.
func matchesExactly(pm *patternmatcher.PatternMatcher, rel string) (bool, error) {
	return pm.MatchesUsingParentResult(rel, false)
}
