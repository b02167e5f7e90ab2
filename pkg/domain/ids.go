// Package domain holds the typed identifiers shared across the registry.
// Distinct types keep item ids and principal ids from being mixed up at
// compile time.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "curio/pkg/domain-errors"
)

// AccountID identifies a principal: any identity that can initiate operations
// and receive funds.
type AccountID uuid.UUID

// ItemID identifies a minted item. Ids are assigned once, start at 1 and
// strictly increase; 0 is never a valid id.
type ItemID uint64

// ParseAccountID validates and parses an account id from its string form.
// Rejects empty, malformed and nil UUIDs.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "account id is not a valid UUID")
	}
	if u == uuid.Nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must not be the nil UUID")
	}
	return AccountID(u), nil
}

// ParseItemID parses a positive decimal item id.
func ParseItemID(s string) (ItemID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "item id must be a positive integer")
	}
	return ItemID(n), nil
}

func (a AccountID) String() string { return uuid.UUID(a).String() }

// IsNil reports whether the account id is the zero value.
func (a AccountID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }

func (i ItemID) String() string { return strconv.FormatUint(uint64(i), 10) }
