package service

import (
	"context"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
)

// HoldResult is the outcome of a batch hold: the shared expiry of the
// holds that succeeded plus a per-seat result list.
type HoldResult struct {
	ExpiresAt time.Time
	Results   []SeatResult
}

// Held returns the seat ids that were successfully held.
func (r HoldResult) Held() []uint64 {
	out := make([]uint64, 0, len(r.Results))
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, res.SeatID)
		}
	}
	return out
}

// HoldSeats places a time-boxed hold on each requested seat for the
// holder.  Seats are processed independently: the first request to
// observe AVAILABLE wins a seat, later ones fail it with
// ErrSeatUnavailable, and a failure on one seat does not undo the
// others.  A caller left with a partial batch is expected to release
// the seats it no longer wants.
func (e *Engine) HoldSeats(ctx context.Context, screeningID uint64, seatIDs []uint64, h model.Holder) (HoldResult, error) {
	seatIDs = dedupeSeats(seatIDs)
	if len(seatIDs) == 0 {
		return HoldResult{}, ErrNoSeats
	}
	expiresAt := e.now().Add(e.HoldTTL)
	result := HoldResult{ExpiresAt: expiresAt, Results: make([]SeatResult, 0, len(seatIDs))}
	for _, sid := range seatIDs {
		err := e.Seats.Hold(ctx, screeningID, sid, h, expiresAt)
		result.Results = append(result.Results, SeatResult{SeatID: sid, Err: err})
	}
	return result, nil
}

// ReleaseSeats returns held seats to AVAILABLE.  Only the holder that
// placed a hold may release it; each seat is checked and released
// independently.
func (e *Engine) ReleaseSeats(ctx context.Context, screeningID uint64, seatIDs []uint64, h model.Holder) ([]SeatResult, error) {
	seatIDs = dedupeSeats(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}
	results := make([]SeatResult, 0, len(seatIDs))
	for _, sid := range seatIDs {
		err := e.Seats.Release(ctx, screeningID, sid, h)
		results = append(results, SeatResult{SeatID: sid, Err: err})
	}
	return results, nil
}
