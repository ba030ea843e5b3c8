package model

import "time"

// SeatStatus enumerates the lifecycle of a seat for one screening.
//
// AVAILABLE -> HELD on a successful hold; HELD -> RESERVED when a
// pending reservation freezes the hold; RESERVED -> SOLD on payment
// confirmation.  HELD falls back to AVAILABLE on release or when the
// sweeper reclaims an expired hold, and RESERVED falls back to
// AVAILABLE when the pending reservation fails or is canceled.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HELD"
	SeatReserved  SeatStatus = "RESERVED"
	SeatSold      SeatStatus = "SOLD"
)

// ScreeningSeat tracks the availability of a single seat for a single
// screening.  One row exists per (screening, seat) pair, created when
// the screening is scheduled and deleted only with the screening.
//
// Fields:
//  ScreeningID   – the screening this availability row belongs to.
//  SeatID        – the physical seat in the screening room.
//  Status        – AVAILABLE, HELD, RESERVED or SOLD.
//  HolderType    – CUSTOMER or GUEST while HELD/RESERVED, nil otherwise.
//  HolderID      – identity of the current holder, nil unless HELD/RESERVED.
//  HoldExpiresAt – when the hold lapses; set only while HELD.  A
//                  RESERVED seat has no expiry of its own – the pending
//                  reservation's deadline governs it instead.
//  UpdatedAt     – timestamp of the last status change.
//
// Invariant: HolderType/HolderID are non-nil iff Status is HELD or
// RESERVED; HoldExpiresAt is non-nil iff Status is HELD.
type ScreeningSeat struct {
	ScreeningID   uint64      // screening_seats.screening_id
	SeatID        uint64      // screening_seats.seat_id
	Status        SeatStatus  // screening_seats.status
	HolderType    *HolderType // screening_seats.holder_type (nullable)
	HolderID      *uint64     // screening_seats.holder_id (nullable)
	HoldExpiresAt *time.Time  // screening_seats.hold_expires_at (nullable)
	UpdatedAt     time.Time   // screening_seats.updated_at
}

// HeldBy reports whether the seat is currently held or reserved by the
// given holder.
func (s *ScreeningSeat) HeldBy(h Holder) bool {
	return s.HolderType != nil && *s.HolderType == h.Type &&
		s.HolderID != nil && *s.HolderID == h.ID
}
