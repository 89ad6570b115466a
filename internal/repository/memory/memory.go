// Package memory implements the repository interfaces with in-process maps.
// Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps accounts by id and ads by workspace id, each workspace's ads
// in creation order.
//
// Values, not pointers, go into the maps, and every getter hands out a
// copy. A caller editing a returned Advertisement can't reach into the
// store behind the lock's back.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
	ads      map[string][]model.Advertisement
}

func New() *Store {
	return &Store{
		accounts: make(map[string]model.Account),
		ads:      make(map[string][]model.Advertisement),
	}
}

func (s *Store) CreateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return apperror.Conflict("account", account.ID)
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *Store) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	return &a, nil
}

func (s *Store) CreateAd(_ context.Context, workspaceID string, ad *model.Advertisement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *ad
	stored.ReceivingSites = append([]string(nil), ad.ReceivingSites...)
	s.ads[workspaceID] = append(s.ads[workspaceID], stored)
	return nil
}

func (s *Store) GetAd(_ context.Context, workspaceID, id string) (*model.Advertisement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ad := range s.ads[workspaceID] {
		if ad.ID == id {
			out := ad
			out.ReceivingSites = append([]string(nil), ad.ReceivingSites...)
			return &out, nil
		}
	}
	return nil, apperror.NotFound("advertisement", id)
}

func (s *Store) ListAds(_ context.Context, workspaceID string) ([]model.Advertisement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.ads[workspaceID]
	out := make([]model.Advertisement, len(src))
	for i, ad := range src {
		out[i] = ad
		out[i].ReceivingSites = append([]string(nil), ad.ReceivingSites...)
	}
	return out, nil
}

func (s *Store) DeleteWorkspaceAds(_ context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ads, workspaceID)
	return nil
}

func (s *Store) Close() error {
	return nil
}
