// Package events defines the records emitted after every successful mutating
// marketplace operation, for observers and indexers. Keep the event shape
// transport-agnostic so journal stores and sinks can fan out.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type names an emitted record. One per successful mutating operation.
type Type string

const (
	TypeMinted               Type = "minted"
	TypeListed               Type = "listed"
	TypeUnlisted             Type = "unlisted"
	TypeSold                 Type = "sold"
	TypeProceedsWithdrawn    Type = "proceeds_withdrawn"
	TypeOwnershipTransferred Type = "ownership_transferred"
)

// Event carries the identifiers, principals and amounts of one operation.
// Fields that do not apply to a type stay zero-valued.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Type         Type      `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	ItemID       uint64    `json:"item_id,omitempty"`
	Actor        string    `json:"actor"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	Descriptor   string    `json:"descriptor,omitempty"`
}
