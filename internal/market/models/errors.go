package models

import (
	"errors"

	dErrors "curio/pkg/domain-errors"
)

func isKind(err, kind error) bool { return errors.Is(err, kind) }

// Marketplace failure kinds. Each is a distinct sentinel so callers can match
// with errors.Is and transports can map to a stable wire code. Authorization
// kinds carry CodeForbidden, state preconditions CodeNotFound/CodeBadRequest,
// the reentrancy guard CodeConflict and the external release CodeUpstream.
var (
	// ErrUnknownItem: the item id was never minted.
	ErrUnknownItem = dErrors.New(dErrors.CodeNotFound, "unknown item")

	// ErrNotTokenOwner: caller does not currently own the item.
	ErrNotTokenOwner = dErrors.New(dErrors.CodeForbidden, "caller is not the item owner")

	// ErrNotTokenSeller: caller is not the seller recorded on the listing.
	ErrNotTokenSeller = dErrors.New(dErrors.CodeForbidden, "caller is not the listing seller")

	// ErrTokenNotListed: unlist against an item with no active listing.
	ErrTokenNotListed = dErrors.New(dErrors.CodeNotFound, "item is not listed")

	// ErrNotListed: buy against an item with no active listing.
	ErrNotListed = dErrors.New(dErrors.CodeNotFound, "item is not listed for sale")

	// ErrInvalidPrice: listing price must be positive.
	ErrInvalidPrice = dErrors.New(dErrors.CodeBadRequest, "price must be greater than zero")

	// ErrInsufficientPayment: payment is below the listed price.
	ErrInsufficientPayment = dErrors.New(dErrors.CodePaymentRequired, "payment is below the listing price")

	// ErrNoProceeds: withdraw with a zero balance.
	ErrNoProceeds = dErrors.New(dErrors.CodeBadRequest, "no proceeds to withdraw")

	// ErrTransferFailed: the external fund release was refused; the balance
	// has been restored.
	ErrTransferFailed = dErrors.New(dErrors.CodeUpstream, "fund release failed")

	// ErrReentrant: nested entry into a guarded operation during a fund
	// release.
	ErrReentrant = dErrors.New(dErrors.CodeConflict, "reentrant call rejected")

	// ErrStaleListing: the listing's recorded seller no longer owns the item,
	// so settlement refuses it. The listing stays in place and can still be
	// retracted by its seller.
	ErrStaleListing = dErrors.New(dErrors.CodeConflict, "listing is stale: seller no longer owns the item")
)

// WireCode returns the stable machine-readable code for a marketplace failure
// kind, or "" when err is not one.
func WireCode(err error) string {
	switch {
	case isKind(err, ErrUnknownItem):
		return "UNKNOWN_ITEM"
	case isKind(err, ErrNotTokenOwner):
		return "NOT_TOKEN_OWNER"
	case isKind(err, ErrNotTokenSeller):
		return "NOT_TOKEN_SELLER"
	case isKind(err, ErrTokenNotListed):
		return "TOKEN_NOT_LISTED"
	case isKind(err, ErrNotListed):
		return "NOT_LISTED"
	case isKind(err, ErrInvalidPrice):
		return "INVALID_PRICE"
	case isKind(err, ErrInsufficientPayment):
		return "INSUFFICIENT_PAYMENT"
	case isKind(err, ErrNoProceeds):
		return "NO_PROCEEDS"
	case isKind(err, ErrTransferFailed):
		return "TRANSFER_FAILED"
	case isKind(err, ErrReentrant):
		return "REENTRANT"
	case isKind(err, ErrStaleListing):
		return "STALE_LISTING"
	default:
		return ""
	}
}
