//go:build !linux

package entropy

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const sourceName = "crypto/rand"

func read(p []byte) error {
	if _, err := rand.Read(p); err != nil {
		return errors.Wrap(err, "crypto/rand")
	}
	return nil
}
