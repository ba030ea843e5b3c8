package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
)

// ScreeningSeatRepo persists per-(screening, seat) availability rows.
// Every mutation is a single guarded UPDATE keyed on the current
// status (and holder, where ownership matters), so concurrent writers
// are linearized by the row lock: the first statement to match wins
// and later ones affect zero rows.  Cross-seat batches are therefore
// per-seat by construction.
type ScreeningSeatRepo struct {
	db *sql.DB
}

// NewScreeningSeatRepo returns a ScreeningSeatRepo bound to the given database.
func NewScreeningSeatRepo(db *sql.DB) *ScreeningSeatRepo { return &ScreeningSeatRepo{db: db} }

const seatColumns = `screening_id, seat_id, status, holder_type, holder_id, hold_expires_at, updated_at`

func scanSeat(row *sql.Row) (*model.ScreeningSeat, error) {
	var s model.ScreeningSeat
	var holderType sql.NullString
	var holderID sql.NullInt64
	var expires sql.NullTime
	err := row.Scan(&s.ScreeningID, &s.SeatID, &s.Status, &holderType, &holderID, &expires, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	if holderType.Valid {
		ht := model.HolderType(holderType.String)
		s.HolderType = &ht
	}
	if holderID.Valid {
		id := uint64(holderID.Int64)
		s.HolderID = &id
	}
	if expires.Valid {
		t := expires.Time
		s.HoldExpiresAt = &t
	}
	return &s, nil
}

// Get loads one availability row.  Returns ErrSeatNotFound when no row
// exists for the pair.
func (r *ScreeningSeatRepo) Get(ctx context.Context, screeningID, seatID uint64) (*model.ScreeningSeat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM screening_seats WHERE screening_id = ? AND seat_id = ?`,
		screeningID, seatID)
	return scanSeat(row)
}

// CreateBulk inserts AVAILABLE rows for every seat of a newly scheduled
// screening in one statement.  Timestamps default in the DB.
func (r *ScreeningSeatRepo) CreateBulk(ctx context.Context, screeningID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO screening_seats (screening_id, seat_id, status) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*3)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, screeningID, sid, model.SeatAvailable)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Hold transitions one seat AVAILABLE -> HELD for the given holder.
// The status guard makes the first request to observe AVAILABLE win;
// a concurrent attempt on the same seat gets ErrSeatUnavailable.
func (r *ScreeningSeatRepo) Hold(ctx context.Context, screeningID, seatID uint64, h model.Holder, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE screening_seats
		 SET status = ?, holder_type = ?, holder_id = ?, hold_expires_at = ?
		 WHERE screening_id = ? AND seat_id = ? AND status = ?`,
		model.SeatHeld, h.Type, h.ID, expiresAt.UTC(), screeningID, seatID, model.SeatAvailable)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a lost race.
		if _, err := r.Get(ctx, screeningID, seatID); err != nil {
			return err
		}
		return ErrSeatUnavailable
	}
	return nil
}

// Release transitions one seat HELD -> AVAILABLE, but only for the
// holder that placed the hold.  Other callers get ErrNotHoldOwner.
func (r *ScreeningSeatRepo) Release(ctx context.Context, screeningID, seatID uint64, h model.Holder) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE screening_seats
		 SET status = ?, holder_type = NULL, holder_id = NULL, hold_expires_at = NULL
		 WHERE screening_id = ? AND seat_id = ? AND status = ? AND holder_type = ? AND holder_id = ?`,
		model.SeatAvailable, screeningID, seatID, model.SeatHeld, h.Type, h.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, screeningID, seatID); err != nil {
			return err
		}
		return ErrNotHoldOwner
	}
	return nil
}

// Reserve freezes a held seat into RESERVED while a pending reservation
// references it.  The hold clock is cleared: from here on the pending
// reservation's own deadline governs the seat.  Fails with
// ErrSeatNotHeld when the seat is not HELD (for example after the
// sweeper reclaimed it) and ErrNotHoldOwner when held by someone else.
func (r *ScreeningSeatRepo) Reserve(ctx context.Context, screeningID, seatID uint64, h model.Holder) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE screening_seats
		 SET status = ?, hold_expires_at = NULL
		 WHERE screening_id = ? AND seat_id = ? AND status = ? AND holder_type = ? AND holder_id = ?`,
		model.SeatReserved, screeningID, seatID, model.SeatHeld, h.Type, h.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		seat, err := r.Get(ctx, screeningID, seatID)
		if err != nil {
			return err
		}
		if seat.Status != model.SeatHeld {
			return ErrSeatNotHeld
		}
		return ErrNotHoldOwner
	}
	return nil
}

// MarkSold finalizes a reserved seat on payment confirmation.  The
// holder back-reference becomes a permanent SOLD state with no holder.
func (r *ScreeningSeatRepo) MarkSold(ctx context.Context, screeningID, seatID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE screening_seats
		 SET status = ?, holder_type = NULL, holder_id = NULL, hold_expires_at = NULL
		 WHERE screening_id = ? AND seat_id = ? AND status = ?`,
		model.SeatSold, screeningID, seatID, model.SeatReserved)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, screeningID, seatID); err != nil {
			return err
		}
		return ErrSeatNotHeld
	}
	return nil
}

// ReleaseToAvailable returns a seat to AVAILABLE regardless of holder,
// used when a reservation fails, expires or is canceled.  Only seats
// in the given status are touched; a zero update is not an error since
// a concurrent path may already have moved the seat on.
func (r *ScreeningSeatRepo) ReleaseToAvailable(ctx context.Context, screeningID, seatID uint64, from model.SeatStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE screening_seats
		 SET status = ?, holder_type = NULL, holder_id = NULL, hold_expires_at = NULL
		 WHERE screening_id = ? AND seat_id = ? AND status = ?`,
		model.SeatAvailable, screeningID, seatID, from)
	return err
}

// SeatKey identifies one availability row for sweeping.
type SeatKey struct {
	ScreeningID uint64
	SeatID      uint64
}

// ExpiredHolds lists seats still HELD whose hold lapsed before now.
// The sweeper re-checks the filter when it writes, so a seat confirmed
// between read and write simply no longer matches.
func (r *ScreeningSeatRepo) ExpiredHolds(ctx context.Context, now time.Time) ([]SeatKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT screening_id, seat_id FROM screening_seats WHERE status = ? AND hold_expires_at < ?`,
		model.SeatHeld, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []SeatKey
	for rows.Next() {
		var k SeatKey
		if err := rows.Scan(&k.ScreeningID, &k.SeatID); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ReleaseExpired reclaims one expired hold.  The expiry guard is
// re-evaluated in the UPDATE itself so a confirm landing between the
// sweep's read and write takes precedence over the sweep.
func (r *ScreeningSeatRepo) ReleaseExpired(ctx context.Context, key SeatKey, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE screening_seats
		 SET status = ?, holder_type = NULL, holder_id = NULL, hold_expires_at = NULL
		 WHERE screening_id = ? AND seat_id = ? AND status = ? AND hold_expires_at < ?`,
		model.SeatAvailable, key.ScreeningID, key.SeatID, model.SeatHeld, now.UTC())
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SeatView is one row of the public seat map for a screening.
type SeatView struct {
	SeatID     uint64 `json:"seat_id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	Status     string `json:"status"`
}

// ListByScreening returns the seat map with per-seat status for the
// public availability view, ordered by row and number.
func (r *ScreeningSeatRepo) ListByScreening(ctx context.Context, screeningID uint64) ([]SeatView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ss.seat_id, s.row_label, s.seat_number, ss.status
		 FROM screening_seats ss
		 JOIN seats s ON s.id = ss.seat_id
		 WHERE ss.screening_id = ?
		 ORDER BY s.row_label, s.seat_number`,
		screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var views []SeatView
	for rows.Next() {
		var v SeatView
		if err := rows.Scan(&v.SeatID, &v.RowLabel, &v.SeatNumber, &v.Status); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
