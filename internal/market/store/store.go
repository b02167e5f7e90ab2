// Package store defines the persistence boundary for the marketplace: the
// item registry (ids + owners + counter), the listing book and the proceeds
// ledger. Implementations return sentinel errors for missing records; the
// service layer translates them into domain errors.
package store

import (
	"context"

	"github.com/holiman/uint256"

	"curio/internal/market/models"
	"curio/pkg/domain"
)

// Store is the composite persistence interface. The counter is owned by the
// registry side: CreateItem increments it exactly once per mint and never
// reuses an id.
type Store interface {
	// Registry.
	CreateItem(ctx context.Context, owner domain.AccountID) (domain.ItemID, error)
	GetItem(ctx context.Context, id domain.ItemID) (models.Item, error)
	SetOwner(ctx context.Context, id domain.ItemID, owner domain.AccountID) error

	// Listing book. PutListing overwrites any prior listing for the item.
	GetListing(ctx context.Context, id domain.ItemID) (models.Listing, error)
	PutListing(ctx context.Context, l models.Listing) error
	DeleteListing(ctx context.Context, id domain.ItemID) error

	// Proceeds ledger. Balances are non-negative and only ever credited or
	// zeroed; TakeProceeds returns the prior balance after zeroing it.
	Proceeds(ctx context.Context, account domain.AccountID) (*uint256.Int, error)
	AddProceeds(ctx context.Context, account domain.AccountID, amount *uint256.Int) error
	TakeProceeds(ctx context.Context, account domain.AccountID) (*uint256.Int, error)

	// Enumeration, always in ascending item id order.
	ListedItemIDs(ctx context.Context) ([]domain.ItemID, error)
	ItemIDsOwnedBy(ctx context.Context, account domain.AccountID) ([]domain.ItemID, error)
	ListingsByIDs(ctx context.Context, ids []domain.ItemID) ([]models.ActiveListing, error)

	// RunInTx executes fn against a transactional view of the store. All
	// mutations commit together or not at all; the settlement unit depends on
	// this.
	RunInTx(ctx context.Context, fn func(Store) error) error
}
