package repository

import (
	"context"
	"database/sql"

	"github.com/picobox/cinema-reservation/internal/model"
)

// AccountRepo reads customer accounts and creates guest sessions for
// the identity issuer.  Customer registration is out of scope for this
// service; guests are created on demand when an anonymous visitor
// starts holding seats.
type AccountRepo struct {
	db *sql.DB
}

// NewAccountRepo returns an AccountRepo bound to the given database.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

// CustomerByLoginID loads a customer by login name.  Returns
// sql.ErrNoRows untouched; the auth handler maps it to a generic 401
// so login probing cannot distinguish unknown users from bad passwords.
func (r *AccountRepo) CustomerByLoginID(ctx context.Context, loginID string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, login_id, password_hash, name, points, created_at FROM customers WHERE login_id = ?`,
		loginID).
		Scan(&c.ID, &c.LoginID, &c.PasswordHash, &c.Name, &c.Points, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateGuest inserts a guest row and populates the generated ID.
func (r *AccountRepo) CreateGuest(ctx context.Context, g *model.Guest) error {
	result, err := r.db.ExecContext(ctx, `INSERT INTO guests (name) VALUES (?)`, g.Name)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}
