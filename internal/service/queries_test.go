package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/repository"
)

func completedReservation(t *testing.T, engine *Engine, store *memStore) uint64 {
	t.Helper()
	store.addSeats(screeningID, 101, 102)
	holdSeats(t, engine, alice, 101, 102)
	pending, err := engine.CreatePendingReservation(context.Background(), PendingReservationInput{
		ScreeningID: screeningID,
		SeatIDs:     []uint64{101, 102},
		TicketTypes: []TicketTypeCount{{TicketTypeID: adultType, Count: 2}},
	}, alice)
	require.NoError(t, err)
	_, err = engine.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		ReservationID: pending.ReservationID,
		OrderID:       "order-1",
		PaymentKey:    "pk-1",
		Method:        model.PaymentCard,
	}, alice)
	require.NoError(t, err)
	return pending.ReservationID
}

func TestGetReservationDetail(t *testing.T) {
	engine, store, clock := newTestEngine()
	seedCatalog(store, clock.Add(6*time.Hour))
	id := completedReservation(t, engine, store)

	detail, err := engine.GetReservationDetail(context.Background(), id, alice)
	require.NoError(t, err)
	assert.Equal(t, id, detail.ID)
	assert.Equal(t, string(model.ReservationCompleted), detail.Status)
	assert.Equal(t, "Dune: Part Two", detail.MovieTitle)
	assert.Equal(t, "Room 1", detail.RoomName)
	assert.Len(t, detail.SeatLabels, 2)
	assert.Equal(t, uint32(30000), detail.TotalAmount)
	assert.Equal(t, uint32(30000), detail.FinalAmount)
	assert.Equal(t, string(model.PaymentDone), detail.PaymentStatus)
	assert.Equal(t, string(model.PaymentCard), detail.PaymentMethod)

	// Other holders cannot read it.
	_, err = engine.GetReservationDetail(context.Background(), id, bob)
	assert.ErrorIs(t, err, repository.ErrNotOwner)

	_, err = engine.GetReservationDetail(context.Background(), 999, alice)
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestGetTicket(t *testing.T) {
	engine, store, clock := newTestEngine()
	seedCatalog(store, clock.Add(6*time.Hour))
	id := completedReservation(t, engine, store)

	ticket, err := engine.GetTicket(context.Background(), id, alice)
	require.NoError(t, err)
	assert.Equal(t, id, ticket.ReservationID)
	assert.Equal(t, "A101, A102", ticket.Seats)
	assert.Equal(t, 2, ticket.SeatCount)
	assert.NotEmpty(t, ticket.HolderName)

	_, err = engine.GetTicket(context.Background(), id, bob)
	assert.ErrorIs(t, err, repository.ErrNotOwner)
}

func TestListReservations(t *testing.T) {
	engine, store, clock := newTestEngine()
	seedCatalog(store, clock.Add(6*time.Hour))
	id := completedReservation(t, engine, store)

	items, err := engine.ListReservations(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, string(model.ReservationCompleted), items[0].Status)

	// Pending reservations and other holders' lists stay empty.
	items, err = engine.ListReservations(context.Background(), bob)
	require.NoError(t, err)
	assert.Empty(t, items)
}
