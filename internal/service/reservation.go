package service

import (
	"context"
	"log"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/queue"
	"github.com/picobox/cinema-reservation/internal/repository"
)

// TicketTypeCount is one line of the ticket-type breakdown of a
// pending reservation request.
type TicketTypeCount struct {
	TicketTypeID uint64
	Count        int
}

// PendingReservationInput carries everything needed to turn a set of
// held seats into a pending reservation.  Seats are assigned to ticket
// types in order: the first Count seats take the first type, and so on.
type PendingReservationInput struct {
	ScreeningID uint64
	SeatIDs     []uint64
	TicketTypes []TicketTypeCount
	UsePoints   uint32
}

// PendingReservation summarizes a freshly created reservation for the
// caller who must now pay for it.
type PendingReservation struct {
	ReservationID uint64
	Status        model.ReservationStatus
	TotalAmount   uint32
	UsedPoints    uint32
	FinalAmount   uint32
	ExpiresAt     time.Time
	MovieTitle    string
	SeatLabels    []string
}

// CreatePendingReservation validates that every requested seat is held
// by the caller, prices the tickets, debits any applied points, and
// creates the reservation in PENDING state with one ISSUED ticket per
// seat.  The seats move HELD -> RESERVED, which stops the hold clock:
// from here the reservation's own deadline (hold TTL from now) governs
// them, and the sweeper fails the reservation instead of silently
// reclaiming its seats.
//
// Guests may not apply points.  Any validation or ownership failure
// leaves the seats HELD and creates nothing.
func (e *Engine) CreatePendingReservation(ctx context.Context, in PendingReservationInput, h model.Holder) (*PendingReservation, error) {
	seatIDs := dedupeSeats(in.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}
	total := 0
	for _, tt := range in.TicketTypes {
		total += tt.Count
	}
	if total != len(seatIDs) {
		return nil, ErrCountMismatch
	}
	if in.UsePoints > 0 && !h.IsCustomer() {
		return nil, repository.ErrGuestPointsNotAllowed
	}

	screening, err := e.Catalog.Screening(ctx, in.ScreeningID)
	if err != nil {
		return nil, err
	}

	// Every seat must be HELD by this caller before anything mutates.
	for _, sid := range seatIDs {
		seat, err := e.Seats.Get(ctx, in.ScreeningID, sid)
		if err != nil {
			return nil, err
		}
		if seat.Status != model.SeatHeld {
			return nil, repository.ErrSeatNotHeld
		}
		if !seat.HeldBy(h) {
			return nil, repository.ErrNotHoldOwner
		}
	}

	// Price each ticket, walking the seats in order across the
	// ticket-type breakdown.
	earlyBird := screening.EarlyBird()
	tickets := make([]model.Ticket, 0, len(seatIDs))
	var totalAmount uint32
	seatIndex := 0
	for _, tt := range in.TicketTypes {
		base, err := e.Catalog.Price(ctx, screening.RoomID, tt.TicketTypeID)
		if err != nil {
			return nil, err
		}
		price := ticketPrice(base, earlyBird)
		for i := 0; i < tt.Count; i++ {
			tickets = append(tickets, model.Ticket{
				ScreeningID:  in.ScreeningID,
				SeatID:       seatIDs[seatIndex],
				TicketTypeID: tt.TicketTypeID,
				Price:        price,
				Status:       model.TicketIssued,
			})
			seatIndex++
			totalAmount += price
		}
	}
	if in.UsePoints > totalAmount {
		return nil, ErrPointsExceedTotal
	}

	// Debit points speculatively.  The compensating credit is written
	// by the failure paths (reserve failure below, sweep, cancel).
	if in.UsePoints > 0 {
		if err := e.Points.Debit(ctx, h.ID, in.UsePoints); err != nil {
			return nil, err
		}
	}

	now := e.now()
	res := &model.Reservation{
		HolderType:  h.Type,
		HolderID:    h.ID,
		ScreeningID: in.ScreeningID,
		TotalAmount: totalAmount,
		UsedPoints:  in.UsePoints,
		Status:      model.ReservationPending,
		ExpiresAt:   now.Add(e.HoldTTL),
		CreatedAt:   now,
	}
	if err := e.Reservations.CreatePending(ctx, res, tickets); err != nil {
		if in.UsePoints > 0 {
			if cerr := e.Points.Credit(ctx, h.ID, in.UsePoints); cerr != nil {
				log.Printf("reservation: point credit after failed create: %v", cerr)
			}
		}
		return nil, err
	}
	if in.UsePoints > 0 {
		entry := &model.PointEntry{
			CustomerID:    h.ID,
			ReservationID: res.ID,
			ChangeType:    model.PointUsed,
			Amount:        in.UsePoints,
		}
		if _, err := e.Points.Append(ctx, entry); err != nil {
			log.Printf("reservation: point ledger append failed: reservation_id=%d err=%v", res.ID, err)
		}
	}

	// Freeze the holds into RESERVED.  Each seat commits independently;
	// losing one (a racing sweep reclaimed it) fails the whole pending
	// reservation through the shared compensation path so no seat is
	// left stranded in RESERVED.
	for i, sid := range seatIDs {
		if err := e.Seats.Reserve(ctx, in.ScreeningID, sid, h); err != nil {
			for _, reserved := range seatIDs[:i] {
				if rerr := e.Seats.ReleaseToAvailable(ctx, in.ScreeningID, reserved, model.SeatReserved); rerr != nil {
					log.Printf("reservation: seat rollback failed: screening_id=%d seat_id=%d err=%v", in.ScreeningID, reserved, rerr)
				}
			}
			if _, ferr := e.failPending(ctx, res); ferr != nil {
				log.Printf("reservation: fail-pending after reserve error: reservation_id=%d err=%v", res.ID, ferr)
			}
			return nil, err
		}
	}

	labels, err := e.Reservations.SeatLabels(ctx, res.ID)
	if err != nil {
		log.Printf("reservation: seat label lookup failed: reservation_id=%d err=%v", res.ID, err)
	}
	return &PendingReservation{
		ReservationID: res.ID,
		Status:        res.Status,
		TotalAmount:   res.TotalAmount,
		UsedPoints:    res.UsedPoints,
		FinalAmount:   res.FinalAmount(),
		ExpiresAt:     res.ExpiresAt,
		MovieTitle:    screening.MovieTitle,
		SeatLabels:    labels,
	}, nil
}

// ConfirmPaymentInput carries the payment gateway callback fields.
type ConfirmPaymentInput struct {
	ReservationID uint64
	OrderID       string
	PaymentKey    string
	Method        model.PaymentMethod
	UsedPoints    uint32
}

// ConfirmPayment finalizes a pending reservation after the external
// payment succeeded: reservation PENDING -> COMPLETED and the payment
// record are committed together, seats move RESERVED -> SOLD, and 10%
// of the final amount is awarded as points to customers.  The status
// guard makes the call idempotent – a second confirm returns
// ErrAlreadyProcessed and the unique point ledger guarantees the award
// happens at most once.  When the commit fails nothing has changed, so
// the caller may retry with the same gateway fields.
func (e *Engine) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput, h model.Holder) (*model.Payment, error) {
	res, err := e.Reservations.GetByID(ctx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.Holder() != h {
		return nil, repository.ErrNotOwner
	}
	if res.Status != model.ReservationPending {
		return nil, repository.ErrAlreadyProcessed
	}
	if in.UsedPoints != res.UsedPoints {
		return nil, ErrAmountMismatch
	}

	payment := &model.Payment{
		ReservationID: res.ID,
		OrderID:       in.OrderID,
		PaymentKey:    in.PaymentKey,
		Method:        in.Method,
		Amount:        res.TotalAmount,
		UsedPoints:    res.UsedPoints,
		FinalAmount:   res.FinalAmount(),
		Status:        model.PaymentDone,
		ApprovedAt:    e.now(),
	}
	if err := e.Reservations.ConfirmPending(ctx, res.ID, payment); err != nil {
		return nil, err
	}

	tickets, err := e.Reservations.Tickets(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if err := e.Seats.MarkSold(ctx, t.ScreeningID, t.SeatID); err != nil {
			// The reservation is already COMPLETED; a stray seat is
			// logged, not surfaced, so one bad row cannot wedge the
			// whole confirmation.
			log.Printf("reservation: mark sold failed: screening_id=%d seat_id=%d err=%v", t.ScreeningID, t.SeatID, err)
		}
	}

	if h.IsCustomer() {
		earned := payment.FinalAmount / 10
		if earned > 0 {
			entry := &model.PointEntry{
				CustomerID:    h.ID,
				ReservationID: res.ID,
				ChangeType:    model.PointSaved,
				Amount:        earned,
			}
			written, err := e.Points.Append(ctx, entry)
			if err != nil {
				log.Printf("reservation: point award ledger failed: reservation_id=%d err=%v", res.ID, err)
			} else if written {
				if err := e.Points.Credit(ctx, h.ID, earned); err != nil {
					log.Printf("reservation: point award credit failed: reservation_id=%d err=%v", res.ID, err)
				}
			}
		}
	}

	e.publishConfirmed(ctx, res, payment)
	return payment, nil
}

// publishConfirmed emits the reservation.confirmed event.  Broker
// failures are logged and swallowed; the confirmation has already
// committed.
func (e *Engine) publishConfirmed(ctx context.Context, res *model.Reservation, payment *model.Payment) {
	if e.Events == nil {
		return
	}
	screening, err := e.Catalog.Screening(ctx, res.ScreeningID)
	if err != nil {
		log.Printf("reservation: screening lookup for event failed: %v", err)
		return
	}
	labels, err := e.Reservations.SeatLabels(ctx, res.ID)
	if err != nil {
		log.Printf("reservation: seat labels for event failed: %v", err)
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		HolderType:    string(res.HolderType),
		HolderID:      res.HolderID,
		ScreeningID:   res.ScreeningID,
		MovieTitle:    screening.MovieTitle,
		RoomName:      screening.RoomName,
		StartsAt:      screening.StartsAt.UTC().Format(time.RFC3339),
		SeatLabels:    labels,
		TotalAmount:   payment.Amount,
		FinalAmount:   payment.FinalAmount,
		ConfirmedAt:   payment.ApprovedAt.UTC().Format(time.RFC3339),
	}
	if err := e.Events.PublishReservationConfirmed(ctx, ev); err != nil {
		log.Printf("reservation: publish confirmed event failed: %v", err)
	}
}

// CancelReservation cancels a completed reservation up to ten minutes
// after the screening starts.  Seats return to AVAILABLE, tickets and
// the payment become CANCELED, a refund row records the reason, and
// any points spent on the reservation are restored through the
// idempotent ledger.
func (e *Engine) CancelReservation(ctx context.Context, reservationID uint64, reason string, h model.Holder) error {
	res, err := e.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.Holder() != h {
		return repository.ErrNotOwner
	}
	if res.Status != model.ReservationCompleted {
		return repository.ErrAlreadyProcessed
	}
	screening, err := e.Catalog.Screening(ctx, res.ScreeningID)
	if err != nil {
		return err
	}
	if e.now().After(screening.StartsAt.Add(10 * time.Minute)) {
		return ErrCancelDeadlinePassed
	}

	if err := e.Reservations.UpdateStatus(ctx, res.ID, model.ReservationCompleted, model.ReservationCanceled); err != nil {
		return err
	}
	if err := e.Reservations.UpdateTicketStatuses(ctx, res.ID, model.TicketCanceled); err != nil {
		return err
	}

	tickets, err := e.Reservations.Tickets(ctx, res.ID)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if err := e.Seats.ReleaseToAvailable(ctx, t.ScreeningID, t.SeatID, model.SeatSold); err != nil {
			log.Printf("reservation: seat release on cancel failed: screening_id=%d seat_id=%d err=%v", t.ScreeningID, t.SeatID, err)
		}
	}

	if err := e.Reservations.UpdatePaymentStatus(ctx, res.ID, model.PaymentCanceled); err != nil {
		return err
	}
	if err := e.Reservations.SaveRefund(ctx, &model.Refund{
		ReservationID: res.ID,
		Amount:        res.FinalAmount(),
		Reason:        reason,
	}); err != nil {
		return err
	}

	e.refundPoints(ctx, res)
	return nil
}

// failPending moves a pending reservation to FAILED and restores its
// point debit.  Shared between the create-time rollback and the
// sweeper.  The bool reports whether this call won the PENDING ->
// FAILED transition: losing the status guard to a concurrent confirm
// is not an error, but the caller must then leave the reservation's
// seats alone, because the winner owns them now.
func (e *Engine) failPending(ctx context.Context, res *model.Reservation) (bool, error) {
	err := e.Reservations.UpdateStatus(ctx, res.ID, model.ReservationPending, model.ReservationFailed)
	if err == repository.ErrAlreadyProcessed {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := e.Reservations.UpdateTicketStatuses(ctx, res.ID, model.TicketCanceled); err != nil {
		return true, err
	}
	e.refundPoints(ctx, res)
	return true, nil
}

// refundPoints writes the compensating REFUNDED ledger entry for a
// reservation's point debit and credits the balance back.  The unique
// ledger key makes repeated calls single-shot.
func (e *Engine) refundPoints(ctx context.Context, res *model.Reservation) {
	if res.UsedPoints == 0 || res.HolderType != model.HolderCustomer {
		return
	}
	entry := &model.PointEntry{
		CustomerID:    res.HolderID,
		ReservationID: res.ID,
		ChangeType:    model.PointRefunded,
		Amount:        res.UsedPoints,
	}
	written, err := e.Points.Append(ctx, entry)
	if err != nil {
		log.Printf("reservation: point refund ledger failed: reservation_id=%d err=%v", res.ID, err)
		return
	}
	if !written {
		return
	}
	if err := e.Points.Credit(ctx, res.HolderID, res.UsedPoints); err != nil {
		log.Printf("reservation: point refund credit failed: reservation_id=%d err=%v", res.ID, err)
	}
}
