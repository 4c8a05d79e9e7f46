// Package ident produces opaque identifiers for new storage areas and items.
package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a new unique identifier on every call.
type Generator func() string

// UUID returns a random (version 4) UUID string.
func UUID() string {
	return uuid.NewString()
}

// Sequence returns a Generator yielding prefix-1, prefix-2, ... It is safe
// for concurrent use and intended for tests and fixtures.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
