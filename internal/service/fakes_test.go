package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/auth"
	"github.com/sakif/hoverspeak/internal/ids"
	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/upload"
	"github.com/sakif/hoverspeak/internal/workspace"
)

var errStoreDown = errors.New("store down")

// fakeStore is a hand-written in-memory repository. Setting fail makes
// every write return errStoreDown.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	ads      map[string][]model.Advertisement
	fail     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]model.Account),
		ads:      make(map[string][]model.Advertisement),
	}
}

func (f *fakeStore) CreateAccount(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	f.accounts[a.ID] = *a
	return nil
}

func (f *fakeStore) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	return &a, nil
}

func (f *fakeStore) CreateAd(_ context.Context, wsID string, ad *model.Advertisement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	f.ads[wsID] = append(f.ads[wsID], *ad)
	return nil
}

func (f *fakeStore) GetAd(_ context.Context, wsID, id string) (*model.Advertisement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ad := range f.ads[wsID] {
		if ad.ID == id {
			return &ad, nil
		}
	}
	return nil, apperror.NotFound("advertisement", id)
}

func (f *fakeStore) ListAds(_ context.Context, wsID string) ([]model.Advertisement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Advertisement{}, f.ads[wsID]...), nil
}

func (f *fakeStore) DeleteWorkspaceAds(_ context.Context, wsID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ads, wsID)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() *ids.Timestamp {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return ids.NewTimestampAt(func() time.Time { return t })
}

func newTestAccountService(t *testing.T) (*AccountService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewAccountService(store, auth.NewPasswordServiceWithCost(4), fixedClock(), testLogger()), store
}

func newTestAdService(t *testing.T, playback time.Duration) (*AdService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewAdService(store, upload.New("https://example.com/uploads/"), fixedClock(),
		AdConfig{PlaybackDuration: playback, MaxReceivingSites: model.MaxReceivingSites}, testLogger())
	return svc, store
}

func signedInWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New("ws-test", time.Now())
	ws.SignIn(model.User{ID: DemoUserID, FirstName: DemoFirstName})
	return ws
}
