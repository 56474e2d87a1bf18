// Package session generates the opaque per-widget correlation token.
package session

import (
	"encoding/hex"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Prefix starts every token.
const Prefix = "session_"

// NewToken returns a token of the form session_<32 hex chars>_<base36 ms>.
func NewToken() string {
	return format(uuid.New(), time.Now())
}

// NewTokenFrom is like NewToken but draws randomness from r and stamps now.
func NewTokenFrom(r io.Reader, now time.Time) (string, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", err
	}
	return format(id, now), nil
}

func format(id uuid.UUID, now time.Time) string {
	return Prefix + hex.EncodeToString(id[:]) + "_" + strconv.FormatInt(now.UnixMilli(), 36)
}
