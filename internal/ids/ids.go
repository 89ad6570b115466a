// Package ids issues the identifiers used across the app.
package ids

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/xid"
)

// Timestamp issues identifiers derived from the creation time in Unix
// milliseconds. Two calls within the same millisecond get consecutive
// values, so identifiers from one generator never repeat.
type Timestamp struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewTimestamp() *Timestamp {
	return &Timestamp{now: time.Now}
}

// NewTimestampAt is NewTimestamp with a custom clock.
func NewTimestampAt(now func() time.Time) *Timestamp {
	return &Timestamp{now: now}
}

// Next returns the next identifier together with the time it was derived from.
func (g *Timestamp) Next() (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now()
	ms := t.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10), t
}

// Workspace returns a new opaque workspace identifier.
func Workspace() string {
	return xid.New().String()
}
