package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRunID generates a ULID identifying one batch run.
func NewRunID() string {
	return NewRunIDAt(time.Now())
}

// NewRunIDAt is NewRunID with a fixed clock.
func NewRunIDAt(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
