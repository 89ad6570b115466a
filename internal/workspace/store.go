package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/hoverspeak/internal/ids"
)

// Store keeps workspaces in memory, keyed by id.
//
// WHY IN MEMORY?
// A workspace is UI state (current view, playback, the half-filled draft).
// Losing it on restart costs the visitor a form, not data: saved ads live in
// the repository, keyed by the workspace id, and CreateWithID brings the id
// back when a still-valid cookie returns.
//
// CONCURRENCY:
// The map is guarded by an RWMutex. Lookups take the read lock, so many
// requests can resolve their workspace at once; only create, delete and
// sweep take the write lock. Each Workspace guards its own fields.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Workspace
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]*Workspace),
		now:   time.Now,
	}
}

// Create registers a new signed-out workspace.
func (s *Store) Create() *Workspace {
	w := New(ids.Workspace(), s.now())

	s.mu.Lock()
	s.items[w.id] = w
	s.mu.Unlock()

	return w
}

// CreateWithID registers a signed-out workspace under an id issued earlier,
// typically one recovered from a valid session token after a restart or a
// sweep. If the id is already live, the existing workspace is returned.
func (s *Store) CreateWithID(id string) *Workspace {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Two requests racing in with the same cookie must end up sharing one
	// workspace, so check again under the write lock.
	if w, ok := s.items[id]; ok {
		w.touch(now)
		return w
	}
	w := New(id, now)
	s.items[id] = w
	return w
}

// Get returns the workspace and marks it as used.
func (s *Store) Get(id string) (*Workspace, bool) {
	s.mu.RLock()
	w, ok := s.items[id]
	s.mu.RUnlock()

	if ok {
		w.touch(s.now())
	}
	return w, ok
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	w, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if ok {
		w.close()
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Sweep drops workspaces unused for longer than idle and returns their ids.
//
// TWO-PHASE REMOVAL:
// Entries are unlinked while holding the lock, but close() (which stops a
// pending playback timer) runs after it is released. A timer callback takes
// the workspace's own lock, and we never want to hold both at once.
func (s *Store) Sweep(idle time.Duration) []string {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	var removed []*Workspace
	for id, w := range s.items {
		if w.idleSince().Before(cutoff) {
			removed = append(removed, w)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	swept := make([]string, 0, len(removed))
	for _, w := range removed {
		w.close()
		swept = append(swept, w.id)
	}
	return swept
}

// Janitor sweeps idle workspaces every interval until ctx is done. onSweep,
// if set, receives the ids removed by each sweep.
//
// Run it in its own goroutine; it returns when ctx is cancelled, which is
// how the server stops it during shutdown.
func (s *Store) Janitor(ctx context.Context, interval, idle time.Duration, logger *slog.Logger, onSweep func(ids []string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept := s.Sweep(idle)
			if len(swept) == 0 {
				continue
			}
			logger.Debug("idle workspaces swept", slog.Int("count", len(swept)))
			if onSweep != nil {
				onSweep(swept)
			}
		}
	}
}
