package sumfile

import (
	"bufio"
	_ "crypto/sha256"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

// DefaultFile is the checksums file name GoReleaser publishes.
const DefaultFile = "checksums.txt"

// SumDB holds the parsed content of a checksums file, mapping artifact
// file names to hex encoded sha256 sums.
type SumDB struct {
	mu   sync.RWMutex
	file string
	sums map[string]string
}

// New returns an empty SumDB that saves to path.
func New(path string) *SumDB {
	return &SumDB{
		file: path,
		sums: make(map[string]string),
	}
}

// Read loads the checksums file at path. A missing file yields an empty
// database.
func Read(path string) (*SumDB, error) {
	db := New(path)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if err := db.parse(f); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return db, nil
}

// Parse reads checksums from r. Lines that are not "<sha256>  <file>"
// are ignored.
func Parse(r io.Reader) (*SumDB, error) {
	db := New("")
	if err := db.parse(r); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *SumDB) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) != 2 {
			continue
		}

		hash := strings.ToLower(parts[0])
		if digest.SHA256.Validate(hash) != nil {
			continue
		}

		// sha256sum marks binary mode with a leading '*'
		db.sums[strings.TrimPrefix(parts[1], "*")] = hash
	}
	return scanner.Err()
}

// Add records the hash of an artifact.
func (db *SumDB) Add(name, hash string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.sums[name] = hash
}

// Get returns the hash recorded for an artifact.
func (db *SumDB) Get(name string) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	hash, ok := db.sums[name]
	return hash, ok
}

// Names returns the recorded artifact names in sorted order.
func (db *SumDB) Names() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.sums))
	for name := range db.sums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteTo writes the database in checksums file format, sorted by
// artifact name.
func (db *SumDB) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, name := range db.Names() {
		hash, _ := db.Get(name)
		n, err := fmt.Fprintf(w, "%s  %s\n", hash, name)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Save writes the database back to the file it was read from.
func (db *SumDB) Save() error {
	if db.file == "" {
		return errors.New("sum database has no file")
	}

	var b strings.Builder
	if _, err := db.WriteTo(&b); err != nil {
		return err
	}

	return os.WriteFile(db.file, []byte(b.String()), 0o644)
}

// CalculateHash computes the sha256 of a reader's content and returns it
// hex encoded.
func CalculateHash(r io.Reader) (string, error) {
	dgst, err := digest.SHA256.FromReader(r)
	if err != nil {
		return "", err
	}
	return dgst.Encoded(), nil
}
