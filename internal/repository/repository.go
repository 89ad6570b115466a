// Package repository defines the storage interfaces used by the services.
// Implementations live in the memory and sqlite subpackages.
package repository

import (
	"context"

	"github.com/sakif/hoverspeak/internal/model"
)

// AccountRepository keeps submitted registrations.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
}

// AdvertisementRepository keeps advertisements per workspace, in creation order.
type AdvertisementRepository interface {
	CreateAd(ctx context.Context, workspaceID string, ad *model.Advertisement) error
	GetAd(ctx context.Context, workspaceID, id string) (*model.Advertisement, error)
	ListAds(ctx context.Context, workspaceID string) ([]model.Advertisement, error)
	DeleteWorkspaceAds(ctx context.Context, workspaceID string) error
}

// Store is everything the app persists.
type Store interface {
	AccountRepository
	AdvertisementRepository
	Close() error
}
