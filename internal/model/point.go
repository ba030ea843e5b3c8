package model

import "time"

// PointChangeType classifies an entry in the point ledger.  USED is the
// speculative debit written when a pending reservation is created,
// SAVED is the 10% earn written on confirmation, and REFUNDED restores
// a debit when the reservation fails or is canceled.
type PointChangeType string

const (
	PointUsed     PointChangeType = "USED"
	PointSaved    PointChangeType = "SAVED"
	PointRefunded PointChangeType = "REFUNDED"
)

// PointEntry is one append-only row in a customer's point ledger.  The
// ledger is unique per (reservation, change type), which makes every
// write idempotent: re-running a confirmation or a compensating refund
// can never double-apply.
//
// Fields:
//  ID            – primary key identifier.
//  CustomerID    – ledger owner; guests have no ledger.
//  ReservationID – reservation that caused the change.
//  ChangeType    – USED, SAVED or REFUNDED.
//  Amount        – point delta, always positive; ChangeType carries
//                  the direction.
//  CreatedAt     – when the entry was appended.
type PointEntry struct {
	ID            uint64          // point_ledger.id
	CustomerID    uint64          // point_ledger.customer_id
	ReservationID uint64          // point_ledger.reservation_id
	ChangeType    PointChangeType // point_ledger.change_type
	Amount        uint32          // point_ledger.amount
	CreatedAt     time.Time       // point_ledger.created_at
}
