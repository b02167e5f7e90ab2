//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"curio/internal/market/models"
	"curio/internal/market/store"
	"curio/pkg/domain"
	"curio/pkg/platform/sentinel"
	"curio/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	pg := containers.NewPostgresContainer(s.T())
	s.store = New(pg.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.store.db.ExecContext(s.ctx, `
		TRUNCATE items, listings, proceeds;
		UPDATE mint_counter SET last_id = 0;
	`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) account() domain.AccountID {
	return domain.AccountID(uuid.New())
}

func (s *PostgresStoreSuite) TestCreateItem_MonotonicIDs() {
	owner := s.account()
	first, err := s.store.CreateItem(s.ctx, owner)
	s.Require().NoError(err)
	second, err := s.store.CreateItem(s.ctx, owner)
	s.Require().NoError(err)

	s.Equal(domain.ItemID(1), first)
	s.Equal(domain.ItemID(2), second)
}

func (s *PostgresStoreSuite) TestGetItem_RoundTrip() {
	owner := s.account()
	id, err := s.store.CreateItem(s.ctx, owner)
	s.Require().NoError(err)

	item, err := s.store.GetItem(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(owner, item.Owner)

	_, err = s.store.GetItem(s.ctx, 999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetOwner() {
	owner, next := s.account(), s.account()
	id, err := s.store.CreateItem(s.ctx, owner)
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetOwner(s.ctx, id, next))
	item, err := s.store.GetItem(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(next, item.Owner)

	s.ErrorIs(s.store.SetOwner(s.ctx, 999, next), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListing_RoundTrip() {
	seller := s.account()
	id, err := s.store.CreateItem(s.ctx, seller)
	s.Require().NoError(err)

	put := models.Listing{ItemID: id, Seller: seller, Price: uint256.NewInt(125)}
	s.Require().NoError(s.store.PutListing(s.ctx, put))

	got, err := s.store.GetListing(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(seller, got.Seller)
	s.Equal("125", got.Price.Dec())

	// Relisting overwrites in place.
	put.Price = uint256.NewInt(200)
	s.Require().NoError(s.store.PutListing(s.ctx, put))
	got, err = s.store.GetListing(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("200", got.Price.Dec())

	s.Require().NoError(s.store.DeleteListing(s.ctx, id))
	_, err = s.store.GetListing(s.ctx, id)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.DeleteListing(s.ctx, id), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPutListing_UnknownItem() {
	err := s.store.PutListing(s.ctx, models.Listing{
		ItemID: 999, Seller: s.account(), Price: uint256.NewInt(1),
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestProceeds_FullWidthAmountsRoundTrip() {
	account := s.account()

	// Max 256-bit value survives NUMERIC(78,0).
	max := new(uint256.Int).SetAllOne()
	s.Require().NoError(s.store.AddProceeds(s.ctx, account, max))

	bal, err := s.store.Proceeds(s.ctx, account)
	s.Require().NoError(err)
	s.Equal(max.Dec(), bal.Dec())
}

func (s *PostgresStoreSuite) TestTakeProceeds_ZeroesAndReturnsPrior() {
	account := s.account()
	s.Require().NoError(s.store.AddProceeds(s.ctx, account, uint256.NewInt(40)))
	s.Require().NoError(s.store.AddProceeds(s.ctx, account, uint256.NewInt(60)))

	taken, err := s.store.TakeProceeds(s.ctx, account)
	s.Require().NoError(err)
	s.Equal("100", taken.Dec())

	bal, err := s.store.Proceeds(s.ctx, account)
	s.Require().NoError(err)
	s.True(bal.IsZero())

	// Second take finds nothing.
	taken, err = s.store.TakeProceeds(s.ctx, account)
	s.Require().NoError(err)
	s.True(taken.IsZero())
}

func (s *PostgresStoreSuite) TestTakeProceeds_UnknownAccount() {
	taken, err := s.store.TakeProceeds(s.ctx, s.account())
	s.Require().NoError(err)
	s.True(taken.IsZero())
}

func (s *PostgresStoreSuite) TestEnumeration() {
	alice, bob := s.account(), s.account()
	first, err := s.store.CreateItem(s.ctx, alice)
	s.Require().NoError(err)
	second, err := s.store.CreateItem(s.ctx, bob)
	s.Require().NoError(err)
	third, err := s.store.CreateItem(s.ctx, alice)
	s.Require().NoError(err)

	s.Require().NoError(s.store.PutListing(s.ctx, models.Listing{ItemID: third, Seller: alice, Price: uint256.NewInt(5)}))
	s.Require().NoError(s.store.PutListing(s.ctx, models.Listing{ItemID: first, Seller: alice, Price: uint256.NewInt(9)}))

	listed, err := s.store.ListedItemIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.ItemID{first, third}, listed)

	owned, err := s.store.ItemIDsOwnedBy(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal([]domain.ItemID{first, third}, owned)

	owned, err = s.store.ItemIDsOwnedBy(s.ctx, bob)
	s.Require().NoError(err)
	s.Equal([]domain.ItemID{second}, owned)
}

func (s *PostgresStoreSuite) TestListingsByIDs_SkipsUnlisted() {
	seller := s.account()
	first, err := s.store.CreateItem(s.ctx, seller)
	s.Require().NoError(err)
	second, err := s.store.CreateItem(s.ctx, seller)
	s.Require().NoError(err)

	s.Require().NoError(s.store.PutListing(s.ctx, models.Listing{ItemID: second, Seller: seller, Price: uint256.NewInt(77)}))

	rows, err := s.store.ListingsByIDs(s.ctx, []domain.ItemID{first, second})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(second, rows[0].ItemID)
	s.Equal("77", rows[0].Price.Dec())
}

func (s *PostgresStoreSuite) TestRunInTx_RollsBackOnError() {
	seller, buyer := s.account(), s.account()
	id, err := s.store.CreateItem(s.ctx, seller)
	s.Require().NoError(err)
	s.Require().NoError(s.store.PutListing(s.ctx, models.Listing{ItemID: id, Seller: seller, Price: uint256.NewInt(10)}))

	boom := errors.New("boom")
	err = s.store.RunInTx(s.ctx, func(tx store.Store) error {
		if err := tx.DeleteListing(s.ctx, id); err != nil {
			return err
		}
		if err := tx.AddProceeds(s.ctx, seller, uint256.NewInt(10)); err != nil {
			return err
		}
		if err := tx.SetOwner(s.ctx, id, buyer); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	// Every write inside the tx is gone.
	_, err = s.store.GetListing(s.ctx, id)
	s.NoError(err)
	bal, err := s.store.Proceeds(s.ctx, seller)
	s.Require().NoError(err)
	s.True(bal.IsZero())
	item, err := s.store.GetItem(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(seller, item.Owner)
}

func (s *PostgresStoreSuite) TestRunInTx_CommitsOnSuccess() {
	seller, buyer := s.account(), s.account()
	id, err := s.store.CreateItem(s.ctx, seller)
	s.Require().NoError(err)
	s.Require().NoError(s.store.PutListing(s.ctx, models.Listing{ItemID: id, Seller: seller, Price: uint256.NewInt(10)}))

	err = s.store.RunInTx(s.ctx, func(tx store.Store) error {
		if err := tx.DeleteListing(s.ctx, id); err != nil {
			return err
		}
		if err := tx.AddProceeds(s.ctx, seller, uint256.NewInt(10)); err != nil {
			return err
		}
		return tx.SetOwner(s.ctx, id, buyer)
	})
	s.Require().NoError(err)

	_, err = s.store.GetListing(s.ctx, id)
	s.ErrorIs(err, sentinel.ErrNotFound)
	bal, err := s.store.Proceeds(s.ctx, seller)
	s.Require().NoError(err)
	s.Equal("10", bal.Dec())
	item, err := s.store.GetItem(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(buyer, item.Owner)
}
