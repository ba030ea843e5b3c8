package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/queue"
	"github.com/picobox/cinema-reservation/internal/repository"
)

// memStore is an in-memory implementation of every engine store.  It
// mirrors the guarded-update semantics of the SQL repositories: each
// mutation checks the current status under the lock and reports the
// same sentinel errors, so engine tests exercise the real transition
// rules without a database.
type memStore struct {
	mu sync.Mutex

	seats        map[repository.SeatKey]*model.ScreeningSeat
	reservations map[uint64]*model.Reservation
	tickets      map[uint64][]model.Ticket
	payments     map[uint64]*model.Payment
	refunds      []model.Refund
	balances     map[uint64]uint32
	ledger       []model.PointEntry
	screenings   map[uint64]*model.Screening
	prices       map[string]uint32
	published    []queue.ReservationConfirmedEvent

	nextReservationID uint64
	nextTicketID      uint64

	// confirmPaymentErr aborts the next ConfirmPending before anything
	// is written, standing in for a failed transaction commit.
	confirmPaymentErr error

	// afterExpiredPending runs outside the lock after an ExpiredPending
	// scan, letting tests interleave work between the sweeper's read
	// and its writes.
	afterExpiredPending func()
}

func newMemStore() *memStore {
	return &memStore{
		seats:        make(map[repository.SeatKey]*model.ScreeningSeat),
		reservations: make(map[uint64]*model.Reservation),
		tickets:      make(map[uint64][]model.Ticket),
		payments:     make(map[uint64]*model.Payment),
		balances:     make(map[uint64]uint32),
		screenings:   make(map[uint64]*model.Screening),
		prices:       make(map[string]uint32),
	}
}

func priceKey(roomID, ticketTypeID uint64) string {
	return fmt.Sprintf("%d:%d", roomID, ticketTypeID)
}

func (m *memStore) addScreening(s model.Screening) {
	m.screenings[s.ID] = &s
}

func (m *memStore) addPrice(roomID, ticketTypeID uint64, price uint32) {
	m.prices[priceKey(roomID, ticketTypeID)] = price
}

func (m *memStore) addSeats(screeningID uint64, seatIDs ...uint64) {
	for _, sid := range seatIDs {
		m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: sid}] = &model.ScreeningSeat{
			ScreeningID: screeningID,
			SeatID:      sid,
			Status:      model.SeatAvailable,
		}
	}
}

func (m *memStore) seatStatus(screeningID, seatID uint64) model.SeatStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: seatID}].Status
}

// --- SeatStore ---

func (m *memStore) Get(_ context.Context, screeningID, seatID uint64) (*model.ScreeningSeat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: seatID}]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	cp := *seat
	return &cp, nil
}

func (m *memStore) Hold(_ context.Context, screeningID, seatID uint64, h model.Holder, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: seatID}]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if seat.Status != model.SeatAvailable {
		return repository.ErrSeatUnavailable
	}
	ht := h.Type
	id := h.ID
	exp := expiresAt
	seat.Status = model.SeatHeld
	seat.HolderType = &ht
	seat.HolderID = &id
	seat.HoldExpiresAt = &exp
	return nil
}

func (m *memStore) Release(_ context.Context, screeningID, seatID uint64, h model.Holder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: seatID}]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if seat.Status != model.SeatHeld || !seat.HeldBy(h) {
		return repository.ErrNotHoldOwner
	}
	clearSeat(seat, model.SeatAvailable)
	return nil
}

func (m *memStore) Reserve(_ context.Context, screeningID, seatID uint64, h model.Holder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: seatID}]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if seat.Status != model.SeatHeld {
		return repository.ErrSeatNotHeld
	}
	if !seat.HeldBy(h) {
		return repository.ErrNotHoldOwner
	}
	seat.Status = model.SeatReserved
	seat.HoldExpiresAt = nil
	return nil
}

func (m *memStore) MarkSold(_ context.Context, screeningID, seatID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: seatID}]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if seat.Status != model.SeatReserved {
		return repository.ErrSeatNotHeld
	}
	clearSeat(seat, model.SeatSold)
	return nil
}

func (m *memStore) ReleaseToAvailable(_ context.Context, screeningID, seatID uint64, from model.SeatStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[repository.SeatKey{ScreeningID: screeningID, SeatID: seatID}]
	if !ok || seat.Status != from {
		return nil
	}
	clearSeat(seat, model.SeatAvailable)
	return nil
}

func (m *memStore) ExpiredHolds(_ context.Context, now time.Time) ([]repository.SeatKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []repository.SeatKey
	for key, seat := range m.seats {
		if seat.Status == model.SeatHeld && seat.HoldExpiresAt != nil && seat.HoldExpiresAt.Before(now) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *memStore) ReleaseExpired(_ context.Context, key repository.SeatKey, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[key]
	if !ok || seat.Status != model.SeatHeld || seat.HoldExpiresAt == nil || !seat.HoldExpiresAt.Before(now) {
		return false, nil
	}
	clearSeat(seat, model.SeatAvailable)
	return true, nil
}

func clearSeat(seat *model.ScreeningSeat, status model.SeatStatus) {
	seat.Status = status
	seat.HolderType = nil
	seat.HolderID = nil
	seat.HoldExpiresAt = nil
}

// --- ReservationStore ---

func (m *memStore) CreatePending(_ context.Context, res *model.Reservation, tickets []model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextReservationID++
	res.ID = m.nextReservationID
	cp := *res
	m.reservations[res.ID] = &cp
	stored := make([]model.Ticket, len(tickets))
	for i := range tickets {
		m.nextTicketID++
		tickets[i].ID = m.nextTicketID
		tickets[i].ReservationID = res.ID
		stored[i] = tickets[i]
	}
	m.tickets[res.ID] = stored
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (m *memStore) Tickets(_ context.Context, reservationID uint64) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Ticket, len(m.tickets[reservationID]))
	copy(out, m.tickets[reservationID])
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uint64, from, to model.ReservationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if res.Status != from {
		return repository.ErrAlreadyProcessed
	}
	res.Status = to
	return nil
}

func (m *memStore) UpdateTicketStatuses(_ context.Context, reservationID uint64, status model.TicketStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tickets := m.tickets[reservationID]
	for i := range tickets {
		tickets[i].Status = status
	}
	return nil
}

func (m *memStore) ExpiredPending(_ context.Context, now time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	var out []model.Reservation
	for _, res := range m.reservations {
		if res.Status == model.ReservationPending && res.ExpiresAt.Before(now) {
			out = append(out, *res)
		}
	}
	hook := m.afterExpiredPending
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (m *memStore) ConfirmPending(_ context.Context, id uint64, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.confirmPaymentErr; err != nil {
		m.confirmPaymentErr = nil
		return err
	}
	res, ok := m.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if res.Status != model.ReservationPending {
		return repository.ErrAlreadyProcessed
	}
	res.Status = model.ReservationCompleted
	cp := *p
	m.payments[id] = &cp
	return nil
}

func (m *memStore) MarkTicketsUsed(_ context.Context, startedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, tickets := range m.tickets {
		for i := range tickets {
			if tickets[i].Status != model.TicketIssued {
				continue
			}
			s, ok := m.screenings[tickets[i].ScreeningID]
			if !ok || s.StartsAt.After(startedBefore) {
				continue
			}
			tickets[i].Status = model.TicketUsed
			n++
		}
	}
	return n, nil
}

func (m *memStore) PaymentByReservation(_ context.Context, reservationID uint64) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[reservationID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdatePaymentStatus(_ context.Context, reservationID uint64, status model.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[reservationID]
	if !ok {
		return repository.ErrReservationNotFound
	}
	p.Status = status
	return nil
}

func (m *memStore) SaveRefund(_ context.Context, ref *model.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds = append(m.refunds, *ref)
	return nil
}

func (m *memStore) ListByHolder(_ context.Context, h model.Holder, now time.Time) ([]repository.ReservationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.ReservationSummary
	for _, res := range m.reservations {
		if res.Holder() != h {
			continue
		}
		if res.Status != model.ReservationCompleted && res.Status != model.ReservationCanceled {
			continue
		}
		out = append(out, repository.ReservationSummary{
			ID:          res.ID,
			Status:      string(res.Status),
			FinalAmount: res.FinalAmount(),
		})
	}
	return out, nil
}

func (m *memStore) SeatLabels(_ context.Context, reservationID uint64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var labels []string
	for _, t := range m.tickets[reservationID] {
		labels = append(labels, fmt.Sprintf("A%d", t.SeatID))
	}
	return labels, nil
}

func (m *memStore) HolderName(_ context.Context, h model.Holder) (string, error) {
	return fmt.Sprintf("%s-%d", h.Type, h.ID), nil
}

// --- PointStore ---

func (m *memStore) Debit(_ context.Context, customerID uint64, amount uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[customerID] < amount {
		return repository.ErrInsufficientPoints
	}
	m.balances[customerID] -= amount
	return nil
}

func (m *memStore) Credit(_ context.Context, customerID uint64, amount uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[customerID] += amount
	return nil
}

func (m *memStore) Append(_ context.Context, e *model.PointEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ledger {
		if existing.ReservationID == e.ReservationID && existing.ChangeType == e.ChangeType {
			return false, nil
		}
	}
	m.ledger = append(m.ledger, *e)
	return true, nil
}

func (m *memStore) balance(customerID uint64) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[customerID]
}

func (m *memStore) ledgerEntries(reservationID uint64) []model.PointEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PointEntry
	for _, e := range m.ledger {
		if e.ReservationID == reservationID {
			out = append(out, e)
		}
	}
	return out
}

// --- CatalogStore ---

func (m *memStore) Screening(_ context.Context, id uint64) (*model.Screening, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.screenings[id]
	if !ok {
		return nil, repository.ErrScreeningNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) Price(_ context.Context, roomID, ticketTypeID uint64) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[priceKey(roomID, ticketTypeID)]
	if !ok {
		return 0, repository.ErrPriceNotFound
	}
	return p, nil
}

// --- EventPublisher ---

func (m *memStore) PublishReservationConfirmed(_ context.Context, ev queue.ReservationConfirmedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, ev)
	return nil
}

// newTestEngine builds an engine over a fresh memStore with a fixed
// clock that tests can advance.
func newTestEngine() (*Engine, *memStore, *time.Time) {
	store := newMemStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	engine := NewEngine(store, store, store, store, store)
	engine.Now = func() time.Time { return *clock }
	return engine, store, clock
}
