package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/repository"
)

var (
	alice = model.Holder{Type: model.HolderCustomer, ID: 1}
	bob   = model.Holder{Type: model.HolderCustomer, ID: 2}
	guest = model.Holder{Type: model.HolderGuest, ID: 9}
)

func TestHoldSeats(t *testing.T) {
	engine, store, clock := newTestEngine()
	store.addSeats(10, 101, 102, 103)

	result, err := engine.HoldSeats(context.Background(), 10, []uint64{101, 102}, alice)
	require.NoError(t, err)
	assert.Equal(t, clock.Add(10*time.Minute), result.ExpiresAt)
	assert.Equal(t, []uint64{101, 102}, result.Held())
	for _, r := range result.Results {
		assert.True(t, r.OK())
	}
	assert.Equal(t, model.SeatHeld, store.seatStatus(10, 101))
	assert.Equal(t, model.SeatHeld, store.seatStatus(10, 102))
	assert.Equal(t, model.SeatAvailable, store.seatStatus(10, 103))
}

func TestHoldSeatsEmptyBatch(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.HoldSeats(context.Background(), 10, nil, alice)
	assert.ErrorIs(t, err, ErrNoSeats)

	// Zero ids are dropped before processing.
	_, err = engine.HoldSeats(context.Background(), 10, []uint64{0, 0}, alice)
	assert.ErrorIs(t, err, ErrNoSeats)
}

func TestHoldSeatsDeduplicates(t *testing.T) {
	engine, store, _ := newTestEngine()
	store.addSeats(10, 101)

	result, err := engine.HoldSeats(context.Background(), 10, []uint64{101, 101, 101}, alice)
	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
	assert.Equal(t, []uint64{101}, result.Held())
}

func TestHoldSeatsPartialBatch(t *testing.T) {
	engine, store, _ := newTestEngine()
	store.addSeats(10, 101, 102)

	_, err := engine.HoldSeats(context.Background(), 10, []uint64{102}, bob)
	require.NoError(t, err)

	result, err := engine.HoldSeats(context.Background(), 10, []uint64{101, 102, 103}, alice)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)

	assert.True(t, result.Results[0].OK())
	assert.ErrorIs(t, result.Results[1].Err, repository.ErrSeatUnavailable)
	assert.ErrorIs(t, result.Results[2].Err, repository.ErrSeatNotFound)

	// Bob's hold survives Alice's failed attempt on 102.
	assert.Equal(t, model.SeatHeld, store.seatStatus(10, 102))
	assert.Equal(t, []uint64{101}, result.Held())
}

func TestHoldSeatsSingleWinnerUnderContention(t *testing.T) {
	engine, store, _ := newTestEngine()
	store.addSeats(10, 101)

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan uint64, attempts)
	for i := 0; i < attempts; i++ {
		holder := model.Holder{Type: model.HolderCustomer, ID: uint64(i + 1)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.HoldSeats(context.Background(), 10, []uint64{101}, holder)
			if err == nil && len(result.Held()) == 1 {
				wins <- holder.ID
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []uint64
	for id := range wins {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1)

	seat, err := store.Get(context.Background(), 10, 101)
	require.NoError(t, err)
	assert.Equal(t, model.SeatHeld, seat.Status)
	require.NotNil(t, seat.HolderID)
	assert.Equal(t, winners[0], *seat.HolderID)
}

func TestReleaseSeatsRoundTrip(t *testing.T) {
	engine, store, _ := newTestEngine()
	store.addSeats(10, 101)

	_, err := engine.HoldSeats(context.Background(), 10, []uint64{101}, alice)
	require.NoError(t, err)

	results, err := engine.ReleaseSeats(context.Background(), 10, []uint64{101}, alice)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())

	// The seat is indistinguishable from one never held.
	seat, err := store.Get(context.Background(), 10, 101)
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, seat.Status)
	assert.Nil(t, seat.HolderType)
	assert.Nil(t, seat.HolderID)
	assert.Nil(t, seat.HoldExpiresAt)

	// And can be held again by someone else.
	result, err := engine.HoldSeats(context.Background(), 10, []uint64{101}, bob)
	require.NoError(t, err)
	assert.Equal(t, []uint64{101}, result.Held())
}

func TestReleaseSeatsOwnerOnly(t *testing.T) {
	engine, store, _ := newTestEngine()
	store.addSeats(10, 101)

	_, err := engine.HoldSeats(context.Background(), 10, []uint64{101}, alice)
	require.NoError(t, err)

	results, err := engine.ReleaseSeats(context.Background(), 10, []uint64{101}, bob)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, repository.ErrNotHoldOwner)
	assert.Equal(t, model.SeatHeld, store.seatStatus(10, 101))
}

func TestGuestCanHoldSeats(t *testing.T) {
	engine, store, _ := newTestEngine()
	store.addSeats(10, 101)

	result, err := engine.HoldSeats(context.Background(), 10, []uint64{101}, guest)
	require.NoError(t, err)
	assert.Equal(t, []uint64{101}, result.Held())

	seat, err := store.Get(context.Background(), 10, 101)
	require.NoError(t, err)
	require.NotNil(t, seat.HolderType)
	assert.Equal(t, model.HolderGuest, *seat.HolderType)
}
