// Package workspace holds the per-visitor view state: which screen is
// showing, who is signed in, the ad being played and the create-ad draft.
//
// WHY A LOCK ON EVERY METHOD?
// A Workspace is shared between concurrent requests from the same browser
// (two tabs, a double-click on "Create Ad") and the playback timer
// goroutine. Every exported method takes w.mu for its whole body, so each
// one is a single atomic step from the caller's point of view.
//
// Callers never get pointers into the workspace. Snapshot, Draft and User
// hand out copies, and EditDraft applies a change to a copy and swaps it in
// only on success.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/sakif/hoverspeak/internal/model"
)

// Workspace is the state of one visitor.
type Workspace struct {
	mu sync.Mutex

	id           string
	view         View
	user         *model.User
	playing      string
	playTimer    *time.Timer
	playGen      uint64
	draft        model.AdDraft
	registration model.Registration
	flash        string

	createdAt time.Time
	touchedAt time.Time
}

// State is a point-in-time copy of a workspace, safe to hand to templates.
type State struct {
	ID           string
	View         View
	User         *model.User
	Playing      string
	Draft        model.AdDraft
	Registration model.Registration
}

// New returns a signed-out workspace on the landing view.
func New(id string, now time.Time) *Workspace {
	return &Workspace{
		id:           id,
		view:         ViewLanding,
		draft:        model.NewAdDraft(),
		registration: model.NewRegistration(),
		createdAt:    now,
		touchedAt:    now,
	}
}

func (w *Workspace) ID() string {
	return w.id
}

// Snapshot copies the current state.
//
// The View in the snapshot is already resolved, so templates never need to
// know about the signed-in rules.
func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := State{
		ID:           w.id,
		View:         Resolve(w.view, w.user != nil),
		Playing:      w.playing,
		Draft:        w.draft.Clone(),
		Registration: w.registration,
	}
	if w.user != nil {
		u := *w.user
		s.User = &u
	}
	return s
}

// Navigate records the requested view and returns the view that will be shown.
func (w *Workspace) Navigate(v View) View {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.view = v
	return Resolve(v, w.user != nil)
}

// View returns the view currently shown.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Resolve(w.view, w.user != nil)
}

// User returns a copy of the signed-in user, or nil.
func (w *Workspace) User() *model.User {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.user == nil {
		return nil
	}
	u := *w.user
	return &u
}

func (w *Workspace) SignedIn() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.user != nil
}

// SignIn sets the user and moves to the dashboard.
func (w *Workspace) SignIn(u model.User) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.user = &u
	w.view = ViewDashboard
}

// SignOut clears the user and any playback and returns to the landing page.
func (w *Workspace) SignOut() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.user = nil
	w.stopPlaybackLocked()
	w.playing = ""
	w.view = ViewLanding
}

// TogglePlayback stops adID if it is playing; otherwise it starts adID and
// clears the indicator after d. Only the most recent start can clear the
// indicator. It returns the id playing afterwards.
//
// GENERATION-GUARDED TIMERS:
// time.AfterFunc runs its callback on its own goroutine. Timer.Stop only
// prevents callbacks that have not started yet; one that already fired may
// be blocked on w.mu right now, waiting to clear the indicator. If we let it
// through after the visitor started a different ad, it would switch the new
// ad's indicator off early.
//
// So every start captures the current generation number, and every stop
// bumps it. The callback only clears the indicator if the generation it
// captured is still current:
//
//	play ad-1   gen=0, timer A captures 0
//	play ad-2   stop bumps gen to 1, timer B captures 1
//	A fires     sees gen=1 != 0, does nothing
//	B fires     sees gen=1 == 1, clears ad-2
func (w *Workspace) TogglePlayback(adID string, d time.Duration) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Pressing play on the ad that's already playing acts as a stop.
	wasPlaying := w.playing == adID
	w.stopPlaybackLocked()
	if wasPlaying {
		w.playing = ""
		return ""
	}

	w.playing = adID
	gen := w.playGen
	w.playTimer = time.AfterFunc(d, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.playGen == gen {
			w.playing = ""
			w.playTimer = nil
		}
	})
	return adID
}

// stopPlaybackLocked disarms the pending timer. Bumping the generation
// also disarms a callback that already fired and is waiting on the lock.
// The caller must hold w.mu.
func (w *Workspace) stopPlaybackLocked() {
	if w.playTimer != nil {
		w.playTimer.Stop()
		w.playTimer = nil
	}
	w.playGen++
}

// Draft returns a copy of the create-ad form.
func (w *Workspace) Draft() model.AdDraft {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.draft.Clone()
}

// EditDraft applies fn to the create-ad form. The form is left unchanged
// if fn returns an error.
//
// COPY, EDIT, SWAP:
// fn works on a clone, so a half-applied edit (say, text bound but the site
// removal rejected) never leaks into the stored draft.
func (w *Workspace) EditDraft(fn func(d *model.AdDraft) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.draft.Clone()
	if err := fn(&d); err != nil {
		return err
	}
	w.draft = d
	return nil
}

// ResetDraft restores the create-ad form to its initial defaults.
func (w *Workspace) ResetDraft() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.draft = model.NewAdDraft()
}

func (w *Workspace) SetRegistration(r model.Registration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.registration = r
}

// SetFlash stores a message shown once on the next render.
func (w *Workspace) SetFlash(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flash = msg
}

// TakeFlash returns and clears the pending message.
func (w *Workspace) TakeFlash() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	msg := w.flash
	w.flash = ""
	return msg
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.touchedAt = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.touchedAt
}

// close stops any pending timer so a discarded workspace holds nothing.
func (w *Workspace) close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopPlaybackLocked()
}

type contextKey struct{}

// NewContext returns ctx carrying w.
func NewContext(ctx context.Context, w *Workspace) context.Context {
	return context.WithValue(ctx, contextKey{}, w)
}

// FromContext returns the workspace stored by NewContext.
func FromContext(ctx context.Context) (*Workspace, bool) {
	w, ok := ctx.Value(contextKey{}).(*Workspace)
	return w, ok && w != nil
}
