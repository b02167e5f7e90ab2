// Package bank is the boundary to the external payment system. Release is
// the only outbound fund movement the marketplace makes; it may hand control
// to untrusted code, which is why the settlement engine completes all record
// mutations and holds its reentrancy guard before calling it.
package bank

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"curio/pkg/domain"
)

// Bank releases funds to an account. A real deployment injects a payment
// provider client; InMemoryBank serves development and tests.
type Bank interface {
	Release(ctx context.Context, to domain.AccountID, amount *uint256.Int) error
}

// InMemoryBank accumulates released funds per account. ReleaseHook, when set,
// runs before the credit and its error is returned as the release result.
// Tests use it to simulate refused transfers and reentrant callbacks.
type InMemoryBank struct {
	mu          sync.Mutex
	paid        map[domain.AccountID]*uint256.Int
	ReleaseHook func(ctx context.Context, to domain.AccountID, amount *uint256.Int) error
}

func NewInMemoryBank() *InMemoryBank {
	return &InMemoryBank{paid: make(map[domain.AccountID]*uint256.Int)}
}

func (b *InMemoryBank) Release(ctx context.Context, to domain.AccountID, amount *uint256.Int) error {
	if b.ReleaseHook != nil {
		if err := b.ReleaseHook(ctx, to, amount); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.paid[to]
	if !ok {
		cur = uint256.NewInt(0)
		b.paid[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

// Paid reports the total released to an account.
func (b *InMemoryBank) Paid(to domain.AccountID) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.paid[to]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(cur)
}
