// Package receipt records which formulas are installed on this machine.
package receipt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"formula/pkg/platform"

	"github.com/fvbommel/sortorder"
	"github.com/pkg/errors"
)

const (
	FileName       = "receipts.json"
	CurrentVersion = 1
)

// ErrNotInstalled is returned for formulas without a receipt.
var ErrNotInstalled = errors.New("formula is not installed")

// Receipt describes one installed formula.
type Receipt struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Platform    platform.Platform `json:"platform"`
	URL         string            `json:"url"`
	SHA256      string            `json:"sha256"`
	Bins        []string          `json:"bins"`
	BinDir      string            `json:"binDir"`
	Size        int64             `json:"size"`
	InstalledAt time.Time         `json:"installedAt"`
}

// BinPaths returns the absolute paths of the installed executables.
func (r Receipt) BinPaths() []string {
	paths := make([]string, 0, len(r.Bins))
	for _, b := range r.Bins {
		paths = append(paths, filepath.Join(r.BinDir, b))
	}
	return paths
}

// Store is the set of installed formulas keyed by name.
type Store struct {
	ReceiptVersion int                `json:"receiptVersion"`
	Formulas       map[string]Receipt `json:"formulas"`
}

// New creates a new empty Store with the current version.
func New() *Store {
	return &Store{
		ReceiptVersion: CurrentVersion,
		Formulas:       make(map[string]Receipt),
	}
}

// Read loads the receipts file from dir. A missing file yields an empty
// store.
func Read(dir string) (*Store, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read receipts")
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, errors.Wrap(err, "failed to parse receipts")
	}

	if store.ReceiptVersion > CurrentVersion {
		return nil, errors.New("formula upgrade required: receipts file is newer than this version of formula")
	}

	if store.Formulas == nil {
		store.Formulas = make(map[string]Receipt)
	}

	return &store, nil
}

// Write saves the store to dir, replacing the previous file atomically.
func (s *Store) Write(dir string) error {
	s.ReceiptVersion = CurrentVersion

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create receipts directory")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal receipts")
	}

	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return errors.Wrap(err, "failed to write receipts to disk")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write receipts to disk")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write receipts to disk")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, FileName))
}

// Get returns the receipt of name.
func (s *Store) Get(name string) (Receipt, error) {
	r, ok := s.Formulas[name]
	if !ok {
		return Receipt{}, errors.Wrap(ErrNotInstalled, name)
	}
	return r, nil
}

// Put records r, replacing any previous receipt of the same formula.
func (s *Store) Put(r Receipt) {
	s.Formulas[r.Name] = r
}

// Remove deletes the receipt of name.
func (s *Store) Remove(name string) error {
	if _, ok := s.Formulas[name]; !ok {
		return errors.Wrap(ErrNotInstalled, name)
	}
	delete(s.Formulas, name)
	return nil
}

// List returns all receipts in natural name order.
func (s *Store) List() []Receipt {
	names := make([]string, 0, len(s.Formulas))
	for name := range s.Formulas {
		names = append(names, name)
	}
	sort.Sort(sortorder.Natural(names))

	out := make([]Receipt, 0, len(names))
	for _, name := range names {
		out = append(out, s.Formulas[name])
	}
	return out
}

// Owner returns the formula that installed the executable bin into
// binDir, if any.
func (s *Store) Owner(binDir, bin string) (string, bool) {
	for _, r := range s.List() {
		if r.BinDir != binDir {
			continue
		}
		for _, b := range r.Bins {
			if b == bin {
				return r.Name, true
			}
		}
	}
	return "", false
}
