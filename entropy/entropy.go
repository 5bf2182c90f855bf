// Package entropy fills buffers from the build-selected random source.
// The source is fixed at compile time, never probed at runtime, and a
// target with no source does not build at all: there is no stub to fall
// back to.
package entropy

import "fmt"

// Read fills p entirely from the selected source.
func Read(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return read(p)
}

// MustRead fills p or panics. Pairing cannot proceed on partial or
// missing entropy, so callers that have no error path use this.
func MustRead(p []byte) {
	if err := Read(p); err != nil {
		panic(fmt.Sprintf("entropy: %v", err))
	}
}

// Source names the compile-time-selected source.
func Source() string { return sourceName }
