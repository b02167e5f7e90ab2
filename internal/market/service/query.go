package service

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"curio/internal/market/models"
	"curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	"curio/pkg/platform/sentinel"
)

// ListedItems returns every item id with an active listing, ascending.
// Served from the Redis cache when one is configured.
func (s *Service) ListedItems(ctx context.Context) ([]domain.ItemID, error) {
	if s.cache != nil {
		if ids, ok := s.cache.Get(ctx); ok {
			return ids, nil
		}
	}
	ids, err := s.store.ListedItemIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listed items")
	}
	if s.cache != nil {
		s.cache.Set(ctx, ids)
	}
	return ids, nil
}

// ItemsOwnedBy returns every item id currently owned by account, ascending.
// Ids that cannot be confirmed are treated as not owned, never as a failure.
func (s *Service) ItemsOwnedBy(ctx context.Context, account domain.AccountID) ([]domain.ItemID, error) {
	ids, err := s.store.ItemIDsOwnedBy(ctx, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "items owned by")
	}
	return ids, nil
}

// ItemDetail returns the consolidated view for one item: owner, recorded
// listing (zero-valued when unlisted) and descriptor.
func (s *Service) ItemDetail(ctx context.Context, id domain.ItemID) (models.ItemDetail, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ItemDetail{}, models.ErrUnknownItem
		}
		return models.ItemDetail{}, dErrors.Wrap(err, dErrors.CodeInternal, "load item")
	}

	detail := models.ItemDetail{
		ID:    id,
		Owner: item.Owner,
		Price: uint256.NewInt(0),
	}

	listing, err := s.store.GetListing(ctx, id)
	switch {
	case err == nil:
		detail.Seller = listing.Seller
		detail.Price = listing.Price
		detail.Listed = true
	case errors.Is(err, sentinel.ErrNotFound):
		// Unlisted: seller and price stay zero-valued.
	default:
		return models.ItemDetail{}, dErrors.Wrap(err, dErrors.CodeInternal, "load listing")
	}

	descriptor, err := s.metadata.Get(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return models.ItemDetail{}, dErrors.Wrap(err, dErrors.CodeInternal, "load descriptor")
	}
	detail.Descriptor = descriptor
	return detail, nil
}

// ListingDetails returns the hydrated rows for every active listing,
// ascending by item id. The id set may come from the cache; prices and
// sellers are always read through the store.
func (s *Service) ListingDetails(ctx context.Context) ([]models.ActiveListing, error) {
	ids, err := s.ListedItems(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListingsByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hydrate listings")
	}
	return rows, nil
}
