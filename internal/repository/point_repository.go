package repository

import (
	"context"
	"database/sql"

	"github.com/picobox/cinema-reservation/internal/model"
)

// PointRepo manages customer point balances and the append-only point
// ledger.  Balance changes are guarded UPDATEs (the debit requires the
// balance to cover the amount) and ledger rows are unique per
// (reservation, change type), so both sides of the debit/credit pair
// are idempotent-safe.
type PointRepo struct {
	db *sql.DB
}

// NewPointRepo returns a PointRepo bound to the given database.
func NewPointRepo(db *sql.DB) *PointRepo { return &PointRepo{db: db} }

// Debit subtracts points from a customer's balance.  The balance guard
// in the UPDATE rejects overdrafts with ErrInsufficientPoints without
// reading the balance first.
func (r *PointRepo) Debit(ctx context.Context, customerID uint64, amount uint32) error {
	if amount == 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET points = points - ? WHERE id = ? AND points >= ?`,
		amount, customerID, amount)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

// Credit adds points to a customer's balance.
func (r *PointRepo) Credit(ctx context.Context, customerID uint64, amount uint32) error {
	if amount == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE customers SET points = points + ? WHERE id = ?`, amount, customerID)
	return err
}

// Append writes one ledger entry.  The (reservation_id, change_type)
// unique key turns duplicate appends into no-ops: the INSERT IGNORE
// reports zero affected rows and the ledger stays single-entry.  It
// returns whether a new row was written so callers can skip the
// matching balance change on replays.
func (r *PointRepo) Append(ctx context.Context, e *model.PointEntry) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO point_ledger (customer_id, reservation_id, change_type, amount)
		 VALUES (?, ?, ?, ?)`,
		e.CustomerID, e.ReservationID, e.ChangeType, e.Amount)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// History returns a customer's ledger, newest first.
func (r *PointRepo) History(ctx context.Context, customerID uint64) ([]model.PointEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, reservation_id, change_type, amount, created_at
		 FROM point_ledger WHERE customer_id = ? ORDER BY id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PointEntry
	for rows.Next() {
		var e model.PointEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.ReservationID, &e.ChangeType, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Balance reads a customer's current point balance.
func (r *PointRepo) Balance(ctx context.Context, customerID uint64) (uint32, error) {
	var points uint32
	err := r.db.QueryRowContext(ctx, `SELECT points FROM customers WHERE id = ?`, customerID).Scan(&points)
	if err != nil {
		return 0, err
	}
	return points, nil
}
