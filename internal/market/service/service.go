// Package service implements the marketplace state machine: minting,
// listing, settlement, proceeds withdrawal and the administrative transfer
// path.
//
// Concurrency model: one mutex serializes every mutating operation, so each
// runs as an indivisible unit over the shared records. Fund-releasing
// operations additionally hold a reentrancy guard for the whole call,
// including the external release; nested entry into any guarded operation
// fails with ErrReentrant. Record mutations always complete strictly before
// the external fund release.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"curio/internal/events"
	"curio/internal/market/bank"
	"curio/internal/market/metadata"
	"curio/internal/market/models"
	"curio/internal/market/store"
	"curio/internal/platform/metrics"
	"curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
	"curio/pkg/platform/sentinel"
)

// Service executes marketplace operations against the store, the metadata
// collaborator and the bank boundary.
type Service struct {
	store    store.Store
	metadata metadata.Store
	bank     bank.Bank
	events   *events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	cache    *listedCache

	mu   sync.Mutex  // serializes mutating operations
	busy atomic.Bool // reentrancy guard, held across the external release
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithListedCache caches the listed-id set in Redis for the enumeration
// views. Mutating operations invalidate it; the TTL is a backstop.
func WithListedCache(c RedisCmdable, ttl time.Duration) Option {
	return func(s *Service) { s.cache = newListedCache(c, ttl) }
}

// New constructs the service. Store, metadata store, bank and event publisher
// are required.
func New(st store.Store, md metadata.Store, bk bank.Bank, pub *events.Publisher, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("market store is required")
	}
	if md == nil {
		return nil, errors.New("metadata store is required")
	}
	if bk == nil {
		return nil, errors.New("bank is required")
	}
	if pub == nil {
		return nil, errors.New("event publisher is required")
	}
	s := &Service{
		store:    st,
		metadata: md,
		bank:     bk,
		events:   pub,
		logger:   slog.Default(),
		tracer:   otel.Tracer("curio/internal/market"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mint allocates the next item id, assigns ownership to the caller and
// records the immutable descriptor. Mint has no failure path beyond storage
// faults.
func (s *Service) Mint(ctx context.Context, caller domain.AccountID, descriptor string) (domain.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.CreateItem(ctx, caller)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "mint item")
	}
	if err := s.metadata.Set(ctx, id, descriptor); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "store descriptor")
	}

	s.count(func(m *metrics.Metrics) { m.ItemsMinted.Inc() })
	s.events.Emit(ctx, events.Event{
		Type:       events.TypeMinted,
		ItemID:     uint64(id),
		Actor:      caller.String(),
		Descriptor: descriptor,
	})
	return id, nil
}

// OwnerOf returns the current owner of id.
func (s *Service) OwnerOf(ctx context.Context, id domain.ItemID) (domain.AccountID, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.AccountID{}, models.ErrUnknownItem
		}
		return domain.AccountID{}, dErrors.Wrap(err, dErrors.CodeInternal, "owner lookup")
	}
	return item.Owner, nil
}

// List publishes a sale offer for an item the caller owns, overwriting any
// prior listing for the same item.
func (s *Service) List(ctx context.Context, caller domain.AccountID, id domain.ItemID, price *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrUnknownItem
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "list item")
	}
	if item.Owner != caller {
		return models.ErrNotTokenOwner
	}
	if price == nil || price.IsZero() {
		return models.ErrInvalidPrice
	}

	if err := s.store.PutListing(ctx, models.Listing{ItemID: id, Seller: caller, Price: price}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "put listing")
	}

	s.invalidateListed(ctx)
	s.count(func(m *metrics.Metrics) { m.ListingsCreated.Inc() })
	s.events.Emit(ctx, events.Event{
		Type:   events.TypeListed,
		ItemID: uint64(id),
		Actor:  caller.String(),
		Amount: price.Dec(),
	})
	return nil
}

// Unlist retracts an active listing. Only the seller recorded on the listing
// may retract it; this deliberately lets the creator of a stale listing clean
// it up after an administrative transfer.
func (s *Service) Unlist(ctx context.Context, caller domain.AccountID, id domain.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.store.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrTokenNotListed
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "unlist item")
	}
	if listing.Seller != caller {
		return models.ErrNotTokenSeller
	}

	if err := s.store.DeleteListing(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete listing")
	}

	s.invalidateListed(ctx)
	s.count(func(m *metrics.Metrics) { m.ListingsRemoved.Inc() })
	s.events.Emit(ctx, events.Event{
		Type:   events.TypeUnlisted,
		ItemID: uint64(id),
		Actor:  caller.String(),
	})
	return nil
}

// Buy settles a purchase as one atomic unit: the listing is erased first,
// then the seller's proceeds are credited with the full payment (overpayment
// is kept, never refunded), then ownership moves to the caller. Settlement
// refuses stale listings whose recorded seller no longer owns the item.
func (s *Service) Buy(ctx context.Context, caller domain.AccountID, id domain.ItemID, payment *uint256.Int) error {
	ctx, span := s.tracer.Start(ctx, "market.Buy")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.busy.CompareAndSwap(false, true) {
		s.count(func(m *metrics.Metrics) { m.ReentrancyRejected.Inc() })
		return models.ErrReentrant
	}
	defer s.busy.Store(false)

	var seller domain.AccountID
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		listing, err := tx.GetListing(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.ErrNotListed
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "load listing")
		}
		if payment == nil || payment.Lt(listing.Price) {
			return models.ErrInsufficientPayment
		}
		item, err := tx.GetItem(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load item")
		}
		if item.Owner != listing.Seller {
			return models.ErrStaleListing
		}
		seller = listing.Seller

		// Listing goes first so a reentrant observer can never re-purchase
		// or re-sell the same item mid-settlement.
		if err := tx.DeleteListing(ctx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "retire listing")
		}
		if err := tx.AddProceeds(ctx, listing.Seller, payment); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "credit proceeds")
		}
		if err := tx.SetOwner(ctx, id, caller); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "transfer ownership")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateListed(ctx)
	s.count(func(m *metrics.Metrics) { m.SalesSettled.Inc() })
	s.logger.InfoContext(ctx, "sale settled",
		"item_id", id.String(), "buyer", caller.String(), "seller", seller.String(),
		"payment", payment.Dec())
	s.events.Emit(ctx, events.Event{
		Type:         events.TypeSold,
		ItemID:       uint64(id),
		Actor:        caller.String(),
		Counterparty: seller.String(),
		Amount:       payment.Dec(),
	})
	return nil
}

// Withdraw pays out the caller's accrued proceeds. The balance is zeroed
// before the external release; a refused release restores it and fails with
// ErrTransferFailed. The reentrancy guard stays held across the release, so a
// callback that re-enters any guarded operation gets ErrReentrant while the
// original withdrawal still completes for the original amount.
func (s *Service) Withdraw(ctx context.Context, caller domain.AccountID) (*uint256.Int, error) {
	ctx, span := s.tracer.Start(ctx, "market.Withdraw")
	defer span.End()

	s.mu.Lock()
	if !s.busy.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.count(func(m *metrics.Metrics) { m.ReentrancyRejected.Inc() })
		return nil, models.ErrReentrant
	}
	defer s.busy.Store(false)

	amount, err := s.store.TakeProceeds(ctx, caller)
	if err != nil {
		s.mu.Unlock()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "take proceeds")
	}
	if amount.IsZero() {
		s.mu.Unlock()
		return nil, models.ErrNoProceeds
	}
	// Bookkeeping is committed; drop the serialization lock before handing
	// control to the outside world. The busy flag keeps guarded operations
	// out until the release returns.
	s.mu.Unlock()

	if err := s.bank.Release(ctx, caller, amount); err != nil {
		if restoreErr := s.store.AddProceeds(ctx, caller, amount); restoreErr != nil {
			// Should be unreachable with the provided stores; surface loudly.
			s.logger.ErrorContext(ctx, "balance restore failed after refused release",
				"account", caller.String(), "amount", amount.Dec(), "error", restoreErr)
		}
		s.logger.WarnContext(ctx, "fund release refused",
			"account", caller.String(), "amount", amount.Dec(), "error", err)
		return nil, fmt.Errorf("%w: %w", models.ErrTransferFailed, err)
	}

	s.count(func(m *metrics.Metrics) { m.ProceedsWithdrawals.Inc() })
	s.events.Emit(ctx, events.Event{
		Type:   events.TypeProceedsWithdrawn,
		Actor:  caller.String(),
		Amount: amount.Dec(),
	})
	return amount, nil
}

// TransferToWinner moves ownership directly, bypassing the listing book. Any
// active listing for the item is left in place and becomes stale; settlement
// will refuse it (ErrStaleListing) and its seller can still retract it.
func (s *Service) TransferToWinner(ctx context.Context, caller domain.AccountID, id domain.ItemID, winner domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if winner.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "winner account is required")
	}
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrUnknownItem
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load item")
	}
	if item.Owner != caller {
		return models.ErrNotTokenOwner
	}

	if err := s.store.SetOwner(ctx, id, winner); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transfer ownership")
	}

	s.events.Emit(ctx, events.Event{
		Type:         events.TypeOwnershipTransferred,
		ItemID:       uint64(id),
		Actor:        caller.String(),
		Counterparty: winner.String(),
	})
	return nil
}

// Proceeds reports the caller's pending balance without mutating it.
func (s *Service) Proceeds(ctx context.Context, caller domain.AccountID) (*uint256.Int, error) {
	bal, err := s.store.Proceeds(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "proceeds lookup")
	}
	return bal, nil
}

func (s *Service) count(fn func(*metrics.Metrics)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}

func (s *Service) invalidateListed(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
