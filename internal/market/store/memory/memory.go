// Package memory provides the in-memory Store used by default and as the
// unit-test substrate. Enumeration is a full scan over the minted range,
// which is fine at this scale; a secondary index is the upgrade path if the
// registry grows large.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/holiman/uint256"

	"curio/internal/market/models"
	"curio/internal/market/store"
	"curio/pkg/domain"
	"curio/pkg/platform/sentinel"
)

// Store keeps the four maps and the counter behind one mutex. RunInTx takes a
// snapshot and restores it when fn fails, so partial mutations never leak.
type Store struct {
	mu sync.RWMutex
	d  *data
}

type data struct {
	lastID   uint64
	items    map[domain.ItemID]domain.AccountID
	listings map[domain.ItemID]models.Listing
	proceeds map[domain.AccountID]*uint256.Int
}

func New() *Store {
	return &Store{d: &data{
		items:    make(map[domain.ItemID]domain.AccountID),
		listings: make(map[domain.ItemID]models.Listing),
		proceeds: make(map[domain.AccountID]*uint256.Int),
	}}
}

func (d *data) clone() *data {
	c := &data{
		lastID:   d.lastID,
		items:    make(map[domain.ItemID]domain.AccountID, len(d.items)),
		listings: make(map[domain.ItemID]models.Listing, len(d.listings)),
		proceeds: make(map[domain.AccountID]*uint256.Int, len(d.proceeds)),
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	for k, v := range d.listings {
		c.listings[k] = models.Listing{ItemID: v.ItemID, Seller: v.Seller, Price: new(uint256.Int).Set(v.Price)}
	}
	for k, v := range d.proceeds {
		c.proceeds[k] = new(uint256.Int).Set(v)
	}
	return c
}

func (s *Store) CreateItem(_ context.Context, owner domain.AccountID) (domain.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.createItem(owner)
}

func (s *Store) GetItem(_ context.Context, id domain.ItemID) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getItem(id)
}

func (s *Store) SetOwner(_ context.Context, id domain.ItemID, owner domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.setOwner(id, owner)
}

func (s *Store) GetListing(_ context.Context, id domain.ItemID) (models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getListing(id)
}

func (s *Store) PutListing(_ context.Context, l models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.putListing(l)
}

func (s *Store) DeleteListing(_ context.Context, id domain.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteListing(id)
}

func (s *Store) Proceeds(_ context.Context, account domain.AccountID) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.proceedsOf(account)
}

func (s *Store) AddProceeds(_ context.Context, account domain.AccountID, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.addProceeds(account, amount)
}

func (s *Store) TakeProceeds(_ context.Context, account domain.AccountID) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.takeProceeds(account)
}

func (s *Store) ListedItemIDs(_ context.Context) ([]domain.ItemID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listedItemIDs()
}

func (s *Store) ItemIDsOwnedBy(_ context.Context, account domain.AccountID) ([]domain.ItemID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.itemIDsOwnedBy(account)
}

func (s *Store) ListingsByIDs(_ context.Context, ids []domain.ItemID) ([]models.ActiveListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listingsByIDs(ids)
}

// RunInTx serializes the whole unit under the write lock and rolls back to a
// snapshot when fn fails.
func (s *Store) RunInTx(ctx context.Context, fn func(store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.d.clone()
	if err := fn(&txView{d: s.d}); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// txView exposes the same data without locking; it only exists inside
// RunInTx, where the write lock is already held.
type txView struct {
	d *data
}

func (v *txView) CreateItem(_ context.Context, owner domain.AccountID) (domain.ItemID, error) {
	return v.d.createItem(owner)
}
func (v *txView) GetItem(_ context.Context, id domain.ItemID) (models.Item, error) {
	return v.d.getItem(id)
}
func (v *txView) SetOwner(_ context.Context, id domain.ItemID, owner domain.AccountID) error {
	return v.d.setOwner(id, owner)
}
func (v *txView) GetListing(_ context.Context, id domain.ItemID) (models.Listing, error) {
	return v.d.getListing(id)
}
func (v *txView) PutListing(_ context.Context, l models.Listing) error { return v.d.putListing(l) }
func (v *txView) DeleteListing(_ context.Context, id domain.ItemID) error {
	return v.d.deleteListing(id)
}
func (v *txView) Proceeds(_ context.Context, account domain.AccountID) (*uint256.Int, error) {
	return v.d.proceedsOf(account)
}
func (v *txView) AddProceeds(_ context.Context, account domain.AccountID, amount *uint256.Int) error {
	return v.d.addProceeds(account, amount)
}
func (v *txView) TakeProceeds(_ context.Context, account domain.AccountID) (*uint256.Int, error) {
	return v.d.takeProceeds(account)
}
func (v *txView) ListedItemIDs(_ context.Context) ([]domain.ItemID, error) {
	return v.d.listedItemIDs()
}
func (v *txView) ItemIDsOwnedBy(_ context.Context, account domain.AccountID) ([]domain.ItemID, error) {
	return v.d.itemIDsOwnedBy(account)
}
func (v *txView) ListingsByIDs(_ context.Context, ids []domain.ItemID) ([]models.ActiveListing, error) {
	return v.d.listingsByIDs(ids)
}
func (v *txView) RunInTx(_ context.Context, fn func(store.Store) error) error { return fn(v) }

func (d *data) createItem(owner domain.AccountID) (domain.ItemID, error) {
	d.lastID++
	id := domain.ItemID(d.lastID)
	d.items[id] = owner
	return id, nil
}

func (d *data) getItem(id domain.ItemID) (models.Item, error) {
	owner, ok := d.items[id]
	if !ok {
		return models.Item{}, sentinel.ErrNotFound
	}
	return models.Item{ID: id, Owner: owner}, nil
}

func (d *data) setOwner(id domain.ItemID, owner domain.AccountID) error {
	if _, ok := d.items[id]; !ok {
		return sentinel.ErrNotFound
	}
	d.items[id] = owner
	return nil
}

func (d *data) getListing(id domain.ItemID) (models.Listing, error) {
	l, ok := d.listings[id]
	if !ok {
		return models.Listing{}, sentinel.ErrNotFound
	}
	return models.Listing{ItemID: l.ItemID, Seller: l.Seller, Price: new(uint256.Int).Set(l.Price)}, nil
}

func (d *data) putListing(l models.Listing) error {
	if _, ok := d.items[l.ItemID]; !ok {
		return sentinel.ErrNotFound
	}
	d.listings[l.ItemID] = models.Listing{ItemID: l.ItemID, Seller: l.Seller, Price: new(uint256.Int).Set(l.Price)}
	return nil
}

func (d *data) deleteListing(id domain.ItemID) error {
	if _, ok := d.listings[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(d.listings, id)
	return nil
}

func (d *data) proceedsOf(account domain.AccountID) (*uint256.Int, error) {
	b, ok := d.proceeds[account]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).Set(b), nil
}

func (d *data) addProceeds(account domain.AccountID, amount *uint256.Int) error {
	b, ok := d.proceeds[account]
	if !ok {
		b = uint256.NewInt(0)
		d.proceeds[account] = b
	}
	b.Add(b, amount)
	return nil
}

func (d *data) takeProceeds(account domain.AccountID) (*uint256.Int, error) {
	b, ok := d.proceeds[account]
	if !ok || b.IsZero() {
		return uint256.NewInt(0), nil
	}
	delete(d.proceeds, account)
	return b, nil
}

func (d *data) listedItemIDs() ([]domain.ItemID, error) {
	ids := make([]domain.ItemID, 0, len(d.listings))
	for id, l := range d.listings {
		if !l.Price.IsZero() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *data) itemIDsOwnedBy(account domain.AccountID) ([]domain.ItemID, error) {
	var ids []domain.ItemID
	for id, owner := range d.items {
		if owner == account {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *data) listingsByIDs(ids []domain.ItemID) ([]models.ActiveListing, error) {
	out := make([]models.ActiveListing, 0, len(ids))
	for _, id := range ids {
		l, ok := d.listings[id]
		if !ok {
			continue
		}
		out = append(out, models.ActiveListing{ItemID: id, Seller: l.Seller, Price: new(uint256.Int).Set(l.Price)})
	}
	return out, nil
}
