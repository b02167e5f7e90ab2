package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curio/internal/market/models"
	"curio/internal/market/store"
	"curio/pkg/domain"
	"curio/pkg/platform/sentinel"
)

func newAccount() domain.AccountID { return domain.AccountID(uuid.New()) }

func TestCreateItem_MonotonicIDs(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := newAccount()

	var last domain.ItemID
	for range 5 {
		id, err := s.CreateItem(ctx, owner)
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}
}

func TestGetItem_Unminted(t *testing.T) {
	s := New()
	_, err := s.GetItem(context.Background(), 99)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListingRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := newAccount()
	id, err := s.CreateItem(ctx, owner)
	require.NoError(t, err)

	err = s.PutListing(ctx, models.Listing{ItemID: id, Seller: owner, Price: uint256.NewInt(100)})
	require.NoError(t, err)

	l, err := s.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, l.Seller)
	assert.Equal(t, uint256.NewInt(100), l.Price)

	require.NoError(t, s.DeleteListing(ctx, id))
	_, err = s.GetListing(ctx, id)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	err = s.DeleteListing(ctx, id)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestProceeds_AccrueAndTake(t *testing.T) {
	s := New()
	ctx := context.Background()
	seller := newAccount()

	require.NoError(t, s.AddProceeds(ctx, seller, uint256.NewInt(40)))
	require.NoError(t, s.AddProceeds(ctx, seller, uint256.NewInt(60)))

	got, err := s.Proceeds(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), got)

	taken, err := s.TakeProceeds(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), taken)

	after, err := s.Proceeds(ctx, seller)
	require.NoError(t, err)
	assert.True(t, after.IsZero())
}

func TestEnumeration_AscendingOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, b := newAccount(), newAccount()

	var ids []domain.ItemID
	for range 4 {
		id, err := s.CreateItem(ctx, a)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// List out of order to make sure results are sorted, not insertion order.
	require.NoError(t, s.PutListing(ctx, models.Listing{ItemID: ids[3], Seller: a, Price: uint256.NewInt(3)}))
	require.NoError(t, s.PutListing(ctx, models.Listing{ItemID: ids[1], Seller: a, Price: uint256.NewInt(1)}))

	listed, err := s.ListedItemIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemID{ids[1], ids[3]}, listed)

	require.NoError(t, s.SetOwner(ctx, ids[2], b))
	owned, err := s.ItemIDsOwnedBy(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemID{ids[0], ids[1], ids[3]}, owned)
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner, buyer := newAccount(), newAccount()
	id, err := s.CreateItem(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, s.PutListing(ctx, models.Listing{ItemID: id, Seller: owner, Price: uint256.NewInt(10)}))

	boom := errors.New("boom")
	err = s.RunInTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.DeleteListing(ctx, id))
		require.NoError(t, tx.AddProceeds(ctx, owner, uint256.NewInt(10)))
		require.NoError(t, tx.SetOwner(ctx, id, buyer))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Everything rolled back.
	l, err := s.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(10), l.Price)
	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, item.Owner)
	bal, err := s.Proceeds(ctx, owner)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestListingsByIDs_SkipsUnlisted(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := newAccount()
	id1, _ := s.CreateItem(ctx, owner)
	id2, _ := s.CreateItem(ctx, owner)
	require.NoError(t, s.PutListing(ctx, models.Listing{ItemID: id1, Seller: owner, Price: uint256.NewInt(5)}))

	rows, err := s.ListingsByIDs(ctx, []domain.ItemID{id1, id2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id1, rows[0].ItemID)
}
