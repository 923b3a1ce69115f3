package util

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const shortIDLen = 7

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewID returns a ULID stamped with t. Ids created in the same
// millisecond still sort in creation order.
func NewID(t time.Time) string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// IDTime extracts the timestamp of an id. ok is false if id is not a ULID.
func IDTime(id string) (t time.Time, ok bool) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}

// ShortID is the lowercase random tail of an id, for display.
func ShortID(id string) string {
	if len(id) > shortIDLen {
		id = id[len(id)-shortIDLen:]
	}
	return strings.ToLower(id)
}

// MatchID reports whether ref names id, either in full (any case) or by
// its short form.
func MatchID(id, ref string) bool {
	if id == "" || ref == "" {
		return false
	}
	return strings.EqualFold(id, ref) || ShortID(id) == strings.ToLower(ref)
}
