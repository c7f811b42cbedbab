// Package ids generates entity identifiers.
package ids

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SuffixLength is the number of random base-36 characters after the timestamp.
const SuffixLength = 8

// New returns an identifier for an entity created now.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a base-36 millisecond timestamp followed by a random suffix.
// IDs created later sort after earlier ones as long as the timestamp width
// does not change.
func NewAt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 36) + randomSuffix()
}

func randomSuffix() string {
	u := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
	if len(s) < SuffixLength {
		s = strings.Repeat("0", SuffixLength-len(s)) + s
	}
	return s[len(s)-SuffixLength:]
}
