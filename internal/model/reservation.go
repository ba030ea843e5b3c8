package model

import "time"

// ReservationStatus tracks the payment lifecycle of a reservation.
// Transitions are one-way: PENDING -> COMPLETED on confirmation,
// PENDING -> FAILED when the pending deadline lapses, and
// COMPLETED -> CANCELED on an explicit cancel.  A reservation never
// moves backward.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationFailed    ReservationStatus = "FAILED"
	ReservationCanceled  ReservationStatus = "CANCELED"
)

// TicketStatus tracks the state of a single issued ticket.
type TicketStatus string

const (
	TicketIssued   TicketStatus = "ISSUED"
	TicketUsed     TicketStatus = "USED"
	TicketCanceled TicketStatus = "CANCELED"
	TicketRefunded TicketStatus = "REFUNDED"
)

// Reservation groups a purchase attempt for a single screening: the
// reserved seats (as tickets), the price total and the points applied.
// It is created in PENDING state by createPendingReservation together
// with its tickets; the payment row is attached only on successful
// confirmation.
//
// Fields:
//  ID          – primary key identifier.
//  HolderType  – CUSTOMER or GUEST; with HolderID identifies the owner.
//  HolderID    – customers.id or guests.id.
//  ScreeningID – screening being booked.
//  TotalAmount – sum of ticket prices; invariant: equals the sum of
//                Ticket.Price over the reservation's tickets.
//  UsedPoints  – points debited speculatively at creation time.
//  Status      – PENDING, COMPLETED, FAILED or CANCELED.
//  ExpiresAt   – deadline for confirming a PENDING reservation; the
//                sweeper fails the reservation past this instant.
//  CreatedAt   – creation timestamp.
type Reservation struct {
	ID          uint64            // reservations.id
	HolderType  HolderType        // reservations.holder_type
	HolderID    uint64            // reservations.holder_id
	ScreeningID uint64            // reservations.screening_id
	TotalAmount uint32            // reservations.total_amount
	UsedPoints  uint32            // reservations.used_points
	Status      ReservationStatus // reservations.status
	ExpiresAt   time.Time         // reservations.expires_at
	CreatedAt   time.Time         // reservations.created_at
}

// Holder returns the owning holder of the reservation.
func (r *Reservation) Holder() Holder { return Holder{Type: r.HolderType, ID: r.HolderID} }

// FinalAmount is the amount actually charged after points.
func (r *Reservation) FinalAmount() uint32 {
	if r.UsedPoints >= r.TotalAmount {
		return 0
	}
	return r.TotalAmount - r.UsedPoints
}

// Ticket is one seat + ticket-type + price line within a reservation.
// Tickets are created atomically with their reservation, one per seat.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  ScreeningID   – screening the seat belongs to.
//  SeatID        – seat covered by this ticket.
//  TicketTypeID  – ticket type (adult, youth, ...) used for pricing.
//  Price         – unit price charged for this ticket.
//  Status        – ISSUED, USED, CANCELED or REFUNDED.
type Ticket struct {
	ID            uint64       // tickets.id
	ReservationID uint64       // tickets.reservation_id
	ScreeningID   uint64       // tickets.screening_id
	SeatID        uint64       // tickets.seat_id
	TicketTypeID  uint64       // tickets.ticket_type_id
	Price         uint32       // tickets.price
	Status        TicketStatus // tickets.status
}
