// Package models defines the records the marketplace tracks: items, sale
// listings and the consolidated detail view. Monetary amounts are 256-bit
// unsigned integers in the smallest currency unit.
package models

import (
	"github.com/holiman/uint256"

	"curio/pkg/domain"
)

// Item is a uniquely identified digital asset. The registry is the sole
// authority for the owner field; the descriptor lives in the metadata store
// and is immutable after mint.
type Item struct {
	ID    domain.ItemID
	Owner domain.AccountID
}

// Listing is an active sale offer for one item. Seller is the principal that
// created the listing; it is the retraction authority even if ownership later
// changes through the administrative path.
type Listing struct {
	ItemID domain.ItemID
	Seller domain.AccountID
	Price  *uint256.Int
}

// ActiveListing is the hydrated row returned by the listings view.
type ActiveListing struct {
	ItemID domain.ItemID
	Seller domain.AccountID
	Price  *uint256.Int
}

// ItemDetail is the consolidated per-item view: current owner, the recorded
// listing (zero-valued when unlisted) and the immutable descriptor.
type ItemDetail struct {
	ID         domain.ItemID
	Owner      domain.AccountID
	Seller     domain.AccountID
	Price      *uint256.Int
	Listed     bool
	Descriptor string
}
