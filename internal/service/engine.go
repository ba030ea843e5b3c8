// Package service implements the seat-hold and reservation lifecycle
// engine: holding and releasing seats, creating pending reservations,
// confirming payments, canceling, and the background sweep that
// reclaims expired holds.  The engine talks to storage through small
// store interfaces so it can be exercised against in-memory fakes.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/queue"
	"github.com/picobox/cinema-reservation/internal/repository"
)

// Validation errors rejected before any mutation takes place.
var (
	// ErrNoSeats is returned when an operation names zero seats.
	ErrNoSeats = errors.New("no seats requested")

	// ErrCountMismatch is returned when the ticket-type counts do not
	// add up to the number of requested seats.
	ErrCountMismatch = errors.New("ticket count does not match seat count")

	// ErrPointsExceedTotal is returned when more points are applied
	// than the reservation total.
	ErrPointsExceedTotal = errors.New("points exceed total amount")

	// ErrAmountMismatch is returned when the confirmation callback
	// reports different figures than the pending reservation carries.
	ErrAmountMismatch = errors.New("payment amount mismatch")

	// ErrCancelDeadlinePassed is returned when a cancellation arrives
	// later than ten minutes after the screening started.
	ErrCancelDeadlinePassed = errors.New("cancellation deadline passed")
)

// SeatHoldMinutes is how long a hold lasts before the sweeper may
// reclaim it.  The same duration serves as the pending reservation
// deadline, so the clock a user saw when holding seats carries over.
const SeatHoldMinutes = 10

// EarlyBirdDiscount is subtracted from every ticket price when the
// screening starts between 06:00 and 10:59, floored at zero.
const EarlyBirdDiscount = 3000

// SeatStore is the per-(screening, seat) availability store.  Every
// mutation is atomic per seat; cross-seat batches are composed by the
// engine and may partially succeed.
type SeatStore interface {
	Get(ctx context.Context, screeningID, seatID uint64) (*model.ScreeningSeat, error)
	Hold(ctx context.Context, screeningID, seatID uint64, h model.Holder, expiresAt time.Time) error
	Release(ctx context.Context, screeningID, seatID uint64, h model.Holder) error
	Reserve(ctx context.Context, screeningID, seatID uint64, h model.Holder) error
	MarkSold(ctx context.Context, screeningID, seatID uint64) error
	ReleaseToAvailable(ctx context.Context, screeningID, seatID uint64, from model.SeatStatus) error
	ExpiredHolds(ctx context.Context, now time.Time) ([]repository.SeatKey, error)
	ReleaseExpired(ctx context.Context, key repository.SeatKey, now time.Time) (bool, error)
}

// ReservationStore persists reservation aggregates, their tickets and
// payment/refund sub-rows, plus the read-only projections.
type ReservationStore interface {
	CreatePending(ctx context.Context, res *model.Reservation, tickets []model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	Tickets(ctx context.Context, reservationID uint64) ([]model.Ticket, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error
	UpdateTicketStatuses(ctx context.Context, reservationID uint64, status model.TicketStatus) error
	ExpiredPending(ctx context.Context, now time.Time) ([]model.Reservation, error)
	ConfirmPending(ctx context.Context, id uint64, p *model.Payment) error
	MarkTicketsUsed(ctx context.Context, startedBefore time.Time) (int64, error)
	PaymentByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, reservationID uint64, status model.PaymentStatus) error
	SaveRefund(ctx context.Context, ref *model.Refund) error
	ListByHolder(ctx context.Context, h model.Holder, now time.Time) ([]repository.ReservationSummary, error)
	SeatLabels(ctx context.Context, reservationID uint64) ([]string, error)
	HolderName(ctx context.Context, h model.Holder) (string, error)
}

// PointStore manages customer point balances and the ledger.  Append
// reports whether a new ledger row was written; replays return false
// and the matching balance change must be skipped.
type PointStore interface {
	Debit(ctx context.Context, customerID uint64, amount uint32) error
	Credit(ctx context.Context, customerID uint64, amount uint32) error
	Append(ctx context.Context, e *model.PointEntry) (bool, error)
}

// CatalogStore reads the screening and pricing catalog.
type CatalogStore interface {
	Screening(ctx context.Context, id uint64) (*model.Screening, error)
	Price(ctx context.Context, roomID, ticketTypeID uint64) (uint32, error)
}

// EventPublisher emits domain events after a reservation is confirmed.
// Publishing failures never fail the operation; they are logged only.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// Engine composes the hold manager, the reservation orchestrator and
// the sweep logic over the stores.  Events may be nil when no broker
// is configured.  Now is injectable for tests and defaults to
// time.Now.
type Engine struct {
	Seats        SeatStore
	Reservations ReservationStore
	Points       PointStore
	Catalog      CatalogStore
	Events       EventPublisher
	HoldTTL      time.Duration
	Now          func() time.Time
}

// NewEngine wires an Engine with the default hold TTL and clock.
// All stores must be non-nil; Events may be nil.
func NewEngine(seats SeatStore, reservations ReservationStore, points PointStore, catalog CatalogStore, events EventPublisher) *Engine {
	if seats == nil || reservations == nil || points == nil || catalog == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{
		Seats:        seats,
		Reservations: reservations,
		Points:       points,
		Catalog:      catalog,
		Events:       events,
		HoldTTL:      SeatHoldMinutes * time.Minute,
		Now:          time.Now,
	}
}

func (e *Engine) now() time.Time { return e.Now().UTC() }

// SeatResult reports the outcome of one seat within a batch.  Batches
// are applied per seat, so callers must inspect every entry rather
// than assume all-or-nothing.
type SeatResult struct {
	SeatID uint64
	Err    error
}

// OK reports whether the seat operation succeeded.
func (r SeatResult) OK() bool { return r.Err == nil }

// dedupeSeats drops zero and repeated seat ids, preserving order.
func dedupeSeats(seatIDs []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(seatIDs))
	out := make([]uint64, 0, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ticketPrice applies the early-bird discount to a base price.
func ticketPrice(base uint32, earlyBird bool) uint32 {
	if !earlyBird {
		return base
	}
	if base <= EarlyBirdDiscount {
		return 0
	}
	return base - EarlyBirdDiscount
}
