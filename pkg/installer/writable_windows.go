package installer

import (
	"os"

	"github.com/pkg/errors"
)

// CheckWritable reports an error when the current user cannot create
// files in dir.
func CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".formula-write-test-*")
	if err != nil {
		return errors.Wrapf(err, "%s is not writable", dir)
	}
	f.Close()
	return os.Remove(f.Name())
}
