package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScreeningEarlyBird(t *testing.T) {
	at := func(hour int) Screening {
		return Screening{StartsAt: time.Date(2025, 3, 1, hour, 30, 0, 0, time.UTC)}
	}

	for _, hour := range []int{6, 8, 10} {
		s := at(hour)
		assert.True(t, s.EarlyBird(), "hour %d", hour)
	}
	for _, hour := range []int{0, 5, 11, 14, 23} {
		s := at(hour)
		assert.False(t, s.EarlyBird(), "hour %d", hour)
	}
}

func TestScreeningEndsAt(t *testing.T) {
	s := Screening{
		StartsAt:    time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
		DurationMin: 90,
	}
	assert.Equal(t, time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC), s.EndsAt())
}

func TestReservationFinalAmount(t *testing.T) {
	r := Reservation{TotalAmount: 30000, UsedPoints: 5000}
	assert.Equal(t, uint32(25000), r.FinalAmount())

	// Points never drive the amount below zero.
	r = Reservation{TotalAmount: 1000, UsedPoints: 1000}
	assert.Equal(t, uint32(0), r.FinalAmount())
}

func TestScreeningSeatHeldBy(t *testing.T) {
	owner := Holder{Type: HolderCustomer, ID: 1}
	other := Holder{Type: HolderCustomer, ID: 2}
	asGuest := Holder{Type: HolderGuest, ID: 1}

	ht := owner.Type
	id := owner.ID
	seat := ScreeningSeat{Status: SeatHeld, HolderType: &ht, HolderID: &id}

	assert.True(t, seat.HeldBy(owner))
	assert.False(t, seat.HeldBy(other))
	// Same numeric id under a different holder type is a different identity.
	assert.False(t, seat.HeldBy(asGuest))

	free := ScreeningSeat{Status: SeatAvailable}
	assert.False(t, free.HeldBy(owner))
}
