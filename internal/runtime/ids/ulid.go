package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
func CreateULID() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID for the given instant. Ids created within the same
// millisecond stay strictly increasing.
func NewAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewGeneration returns a liveness generation token for a poller group start.
func NewGeneration() string {
	return CreateULID()
}

// GenerationTime reports when a generation token was issued. ok is false for
// tokens that are not ULIDs.
func GenerationTime(token string) (time.Time, bool) {
	id, err := ulid.ParseStrict(token)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(id.Time()), true
}
