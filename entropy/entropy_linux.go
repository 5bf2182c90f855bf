//go:build linux

package entropy

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const sourceName = "getrandom"

// read drains the kernel entropy pool via getrandom(2), retrying short
// reads and EINTR until p is full.
func read(p []byte) error {
	for len(p) > 0 {
		n, err := unix.Getrandom(p, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "getrandom")
		}
		p = p[n:]
	}
	return nil
}
