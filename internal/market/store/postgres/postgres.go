// Package postgres persists the marketplace state in PostgreSQL. Amounts are
// stored as NUMERIC(78,0) so full 256-bit values round-trip; the mint counter
// is a single row updated with RETURNING so ids are allocated exactly once.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/lib/pq"

	"curio/internal/market/models"
	"curio/internal/market/store"
	"curio/pkg/domain"
	"curio/pkg/platform/sentinel"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same store code
// serves transactional and plain access.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the PostgreSQL-backed marketplace store.
type Store struct {
	db *sql.DB
	q  querier
}

// New constructs a store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Schema holds the DDL for the four maps and the counter. Applied by
// EnsureSchema; idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id         BIGINT PRIMARY KEY,
	owner_id   UUID NOT NULL
);
CREATE INDEX IF NOT EXISTS items_owner_idx ON items (owner_id, id);

CREATE TABLE IF NOT EXISTS listings (
	item_id    BIGINT PRIMARY KEY REFERENCES items (id),
	seller_id  UUID NOT NULL,
	price      NUMERIC(78,0) NOT NULL CHECK (price > 0)
);

CREATE TABLE IF NOT EXISTS proceeds (
	account_id UUID PRIMARY KEY,
	balance    NUMERIC(78,0) NOT NULL DEFAULT 0 CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS mint_counter (
	singleton  BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	last_id    BIGINT NOT NULL
);
INSERT INTO mint_counter (singleton, last_id) VALUES (TRUE, 0)
	ON CONFLICT (singleton) DO NOTHING;
`

// EnsureSchema applies the schema. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) CreateItem(ctx context.Context, owner domain.AccountID) (domain.ItemID, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`UPDATE mint_counter SET last_id = last_id + 1 RETURNING last_id`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("advance mint counter: %w", err)
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO items (id, owner_id) VALUES ($1, $2)`, id, owner.String())
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return domain.ItemID(id), nil
}

func (s *Store) GetItem(ctx context.Context, id domain.ItemID) (models.Item, error) {
	var ownerStr string
	err := s.q.QueryRowContext(ctx,
		`SELECT owner_id FROM items WHERE id = $1`, int64(id)).Scan(&ownerStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, sentinel.ErrNotFound
		}
		return models.Item{}, fmt.Errorf("get item: %w", err)
	}
	owner, err := domain.ParseAccountID(ownerStr)
	if err != nil {
		return models.Item{}, fmt.Errorf("get item: bad owner id: %w", err)
	}
	return models.Item{ID: id, Owner: owner}, nil
}

func (s *Store) SetOwner(ctx context.Context, id domain.ItemID, owner domain.AccountID) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE items SET owner_id = $2 WHERE id = $1`, int64(id), owner.String())
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) GetListing(ctx context.Context, id domain.ItemID) (models.Listing, error) {
	var sellerStr, priceStr string
	err := s.q.QueryRowContext(ctx,
		`SELECT seller_id, price FROM listings WHERE item_id = $1`, int64(id)).
		Scan(&sellerStr, &priceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Listing{}, sentinel.ErrNotFound
		}
		return models.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return scanListing(id, sellerStr, priceStr)
}

func (s *Store) PutListing(ctx context.Context, l models.Listing) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO listings (item_id, seller_id, price)
		SELECT id, $2, $3 FROM items WHERE id = $1
		ON CONFLICT (item_id) DO UPDATE SET
			seller_id = EXCLUDED.seller_id,
			price     = EXCLUDED.price
	`, int64(l.ItemID), l.Seller.String(), l.Price.Dec())
	if err != nil {
		return fmt.Errorf("put listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("put listing: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteListing(ctx context.Context, id domain.ItemID) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM listings WHERE item_id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Proceeds(ctx context.Context, account domain.AccountID) (*uint256.Int, error) {
	var balanceStr string
	err := s.q.QueryRowContext(ctx,
		`SELECT balance FROM proceeds WHERE account_id = $1`, account.String()).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uint256.NewInt(0), nil
		}
		return nil, fmt.Errorf("get proceeds: %w", err)
	}
	return parseAmount(balanceStr)
}

func (s *Store) AddProceeds(ctx context.Context, account domain.AccountID, amount *uint256.Int) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO proceeds (account_id, balance) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET
			balance = proceeds.balance + EXCLUDED.balance
	`, account.String(), amount.Dec())
	if err != nil {
		return fmt.Errorf("add proceeds: %w", err)
	}
	return nil
}

func (s *Store) TakeProceeds(ctx context.Context, account domain.AccountID) (*uint256.Int, error) {
	var balanceStr string
	err := s.q.QueryRowContext(ctx, `
		UPDATE proceeds p SET balance = 0
		FROM (SELECT account_id, balance FROM proceeds WHERE account_id = $1 FOR UPDATE) prior
		WHERE p.account_id = prior.account_id AND prior.balance > 0
		RETURNING prior.balance
	`, account.String()).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uint256.NewInt(0), nil
		}
		return nil, fmt.Errorf("take proceeds: %w", err)
	}
	return parseAmount(balanceStr)
}

func (s *Store) ListedItemIDs(ctx context.Context) ([]domain.ItemID, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT item_id FROM listings WHERE price > 0 ORDER BY item_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listed item ids: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *Store) ItemIDsOwnedBy(ctx context.Context, account domain.AccountID) ([]domain.ItemID, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id FROM items WHERE owner_id = $1 ORDER BY id ASC`, account.String())
	if err != nil {
		return nil, fmt.Errorf("items owned by: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ListingsByIDs hydrates listing rows for a precomputed id set (typically the
// cached listed-id set) in one round trip.
func (s *Store) ListingsByIDs(ctx context.Context, ids []domain.ItemID) ([]models.ActiveListing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT item_id, seller_id, price FROM listings
		WHERE item_id = ANY($1) ORDER BY item_id ASC
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("listings by ids: %w", err)
	}
	defer rows.Close()

	var out []models.ActiveListing
	for rows.Next() {
		var id int64
		var sellerStr, priceStr string
		if err := rows.Scan(&id, &sellerStr, &priceStr); err != nil {
			return nil, fmt.Errorf("listings by ids: %w", err)
		}
		l, err := scanListing(domain.ItemID(id), sellerStr, priceStr)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ActiveListing{ItemID: l.ItemID, Seller: l.Seller, Price: l.Price})
	}
	return out, rows.Err()
}

// RunInTx runs fn against a tx-bound copy of the store.
func (s *Store) RunInTx(ctx context.Context, fn func(store.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanListing(id domain.ItemID, sellerStr, priceStr string) (models.Listing, error) {
	seller, err := domain.ParseAccountID(sellerStr)
	if err != nil {
		return models.Listing{}, fmt.Errorf("bad seller id: %w", err)
	}
	price, err := parseAmount(priceStr)
	if err != nil {
		return models.Listing{}, err
	}
	return models.Listing{ItemID: id, Seller: seller, Price: price}, nil
}

func parseAmount(s string) (*uint256.Int, error) {
	a, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return a, nil
}

func scanIDs(rows *sql.Rows) ([]domain.ItemID, error) {
	var ids []domain.ItemID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, domain.ItemID(id))
	}
	return ids, rows.Err()
}
