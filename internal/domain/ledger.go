package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ledger reasons
const (
	ReasonTip          = "tip"
	ReasonCheckin      = "checkin"
	ReasonGame         = "game"
	ReasonDirectUpdate = "direct_update"
	ReasonAdd          = "add"
	ReasonSubtract     = "subtract"
)

// LedgerEntry is an immutable record of one balance-affecting event.
// Amount is the signed change applied to ToFID; for transfers between two
// accounts FromFID was debited by the same amount. Self-adjustments have
// FromFID == ToFID.
type LedgerEntry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	FromFID    string    `db:"from_fid" json:"fromFid"`
	ToFID      string    `db:"to_fid" json:"toFid"`
	Amount     int64     `db:"amount" json:"amount"`
	Reason     string    `db:"reason" json:"reason"`
	MessageRef *string   `db:"message_ref" json:"messageRef,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// IsTransfer reports whether the entry moved currency between two accounts.
func (e *LedgerEntry) IsTransfer() bool {
	return e.FromFID != e.ToFID
}
