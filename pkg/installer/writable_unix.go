//go:build !windows

package installer

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// CheckWritable reports an error when the current user cannot create
// files in dir.
func CheckWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return errors.Wrapf(err, "%s is not writable", dir)
	}
	return nil
}
