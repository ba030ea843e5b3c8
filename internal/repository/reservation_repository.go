package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
)

// ReservationRepo persists reservations with their owned tickets and
// payment rows.  A reservation and its tickets are created atomically
// in one transaction; status changes are guarded UPDATEs on the
// current status so the PENDING -> COMPLETED/FAILED/CANCELED
// transitions can never run twice or backward.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreatePending inserts the reservation and all its tickets in a
// single transaction and populates the generated IDs.  The reservation
// must be in PENDING status with its deadline already set.
func (r *ReservationRepo) CreatePending(ctx context.Context, res *model.Reservation, tickets []model.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (holder_type, holder_id, screening_id, total_amount, used_points, status, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.HolderType, res.HolderID, res.ScreeningID, res.TotalAmount, res.UsedPoints, res.Status, res.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	if len(tickets) > 0 {
		query := `INSERT INTO tickets (reservation_id, screening_id, seat_id, ticket_type_id, price, status) VALUES `
		args := make([]interface{}, 0, len(tickets)*6)
		for i := range tickets {
			tickets[i].ReservationID = res.ID
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			t := tickets[i]
			args = append(args, t.ReservationID, t.ScreeningID, t.SeatID, t.TicketTypeID, t.Price, t.Status)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads a reservation.  Returns ErrReservationNotFound when the
// id does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.QueryRowContext(ctx,
		`SELECT id, holder_type, holder_id, screening_id, total_amount, used_points, status, expires_at, created_at
		 FROM reservations WHERE id = ?`, id).
		Scan(&res.ID, &res.HolderType, &res.HolderID, &res.ScreeningID,
			&res.TotalAmount, &res.UsedPoints, &res.Status, &res.ExpiresAt, &res.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// Tickets returns all tickets of a reservation in insertion order.
func (r *ReservationRepo) Tickets(ctx context.Context, reservationID uint64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, screening_id, seat_id, ticket_type_id, price, status
		 FROM tickets WHERE reservation_id = ? ORDER BY id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.ReservationID, &t.ScreeningID, &t.SeatID, &t.TicketTypeID, &t.Price, &t.Status); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateStatus moves a reservation from one status to another.  The
// guard on the current status makes the transition race-free: when
// zero rows match, the reservation was already moved by another call
// and ErrAlreadyProcessed is returned.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyProcessed
	}
	return nil
}

// UpdateTicketStatuses sets every ticket of a reservation to the given
// status, used when a reservation is canceled or refunded.
func (r *ReservationRepo) UpdateTicketStatuses(ctx context.Context, reservationID uint64, status model.TicketStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE reservation_id = ?`, status, reservationID)
	return err
}

// ExpiredPending lists reservations still PENDING past their deadline.
// The sweeper fails them one at a time via UpdateStatus, so a confirm
// racing the sweep loses at most the seats, never the status guard.
func (r *ReservationRepo) ExpiredPending(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, holder_type, holder_id, screening_id, total_amount, used_points, status, expires_at, created_at
		 FROM reservations WHERE status = ? AND expires_at < ?`,
		model.ReservationPending, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.HolderType, &res.HolderID, &res.ScreeningID,
			&res.TotalAmount, &res.UsedPoints, &res.Status, &res.ExpiresAt, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ConfirmPending moves a reservation PENDING -> COMPLETED and inserts
// its payment record in one transaction, so a reservation can never be
// COMPLETED without the payment row that explains it.  The status guard
// keeps the call idempotent: when another confirm or the sweeper moved
// the reservation first, nothing is written and ErrAlreadyProcessed
// (or the current terminal state's sentinel) is returned.
func (r *ReservationRepo) ConfirmPending(ctx context.Context, id uint64, p *model.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
		model.ReservationCompleted, id, model.ReservationPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyProcessed
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO payments (reservation_id, order_id, payment_key, method, amount, used_points, final_amount, status, approved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ReservationID, p.OrderID, p.PaymentKey, p.Method, p.Amount, p.UsedPoints, p.FinalAmount, p.Status, p.ApprovedAt.UTC())
	if err != nil {
		return err
	}
	paymentID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	p.ID = uint64(paymentID)
	return nil
}

// MarkTicketsUsed flips ISSUED tickets of screenings that started at or
// before the cutoff to USED and reports how many rows changed.  Run by
// the sweeper once the entry window of a screening has closed.
func (r *ReservationRepo) MarkTicketsUsed(ctx context.Context, startedBefore time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets t
		 JOIN screenings s ON s.id = t.screening_id
		 SET t.status = ?
		 WHERE t.status = ? AND s.starts_at <= ?`,
		model.TicketUsed, model.TicketIssued, startedBefore.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PaymentByReservation loads the payment attached to a reservation.
// Returns nil without error when no payment exists yet.
func (r *ReservationRepo) PaymentByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	var p model.Payment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, reservation_id, order_id, payment_key, method, amount, used_points, final_amount, status, approved_at
		 FROM payments WHERE reservation_id = ?`, reservationID).
		Scan(&p.ID, &p.ReservationID, &p.OrderID, &p.PaymentKey, &p.Method,
			&p.Amount, &p.UsedPoints, &p.FinalAmount, &p.Status, &p.ApprovedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePaymentStatus records the gateway status of a payment after a
// refund.
func (r *ReservationRepo) UpdatePaymentStatus(ctx context.Context, reservationID uint64, status model.PaymentStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE reservation_id = ?`, status, reservationID)
	return err
}

// SaveRefund appends the refund record written on cancellation.
func (r *ReservationRepo) SaveRefund(ctx context.Context, ref *model.Refund) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO refunds (reservation_id, amount, reason) VALUES (?, ?, ?)`,
		ref.ReservationID, ref.Amount, ref.Reason)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	ref.ID = uint64(id)
	return nil
}

// ReservationSummary is the projection returned for reservation
// listings: the reservation joined with its screening, movie and room
// snapshot plus the seat labels of its tickets.
type ReservationSummary struct {
	ID            uint64   `json:"id"`
	MovieTitle    string   `json:"movie_title"`
	PosterURL     string   `json:"poster_url,omitempty"`
	ScreeningTime string   `json:"screening_time"`
	RoomName      string   `json:"room_name"`
	SeatLabels    []string `json:"seats"`
	ReservedAt    string   `json:"reserved_at"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status,omitempty"`
	FinalAmount   uint32   `json:"final_amount"`
	ScreeningOver bool     `json:"screening_over"`
}

// ListByHolder returns the completed and canceled reservations of a
// holder, newest screening first.
func (r *ReservationRepo) ListByHolder(ctx context.Context, h model.Holder, now time.Time) ([]ReservationSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT res.id, m.title, m.poster_url, sc.starts_at, m.duration_min, rm.name,
		        res.created_at, res.status, res.total_amount, res.used_points,
		        IFNULL(p.status, '')
		 FROM reservations res
		 JOIN screenings sc ON sc.id = res.screening_id
		 JOIN movies m ON m.id = sc.movie_id
		 JOIN screening_rooms rm ON rm.id = sc.room_id
		 LEFT JOIN payments p ON p.reservation_id = res.id
		 WHERE res.holder_type = ? AND res.holder_id = ? AND res.status IN (?, ?)
		 ORDER BY sc.starts_at DESC, res.id DESC`,
		h.Type, h.ID, model.ReservationCompleted, model.ReservationCanceled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReservationSummary
	for rows.Next() {
		var s ReservationSummary
		var startsAt, reservedAt time.Time
		var durationMin int
		var total, used uint32
		if err := rows.Scan(&s.ID, &s.MovieTitle, &s.PosterURL, &startsAt, &durationMin, &s.RoomName,
			&reservedAt, &s.Status, &total, &used, &s.PaymentStatus); err != nil {
			return nil, err
		}
		s.ScreeningTime = startsAt.UTC().Format(time.RFC3339)
		s.ReservedAt = reservedAt.UTC().Format(time.RFC3339)
		if used >= total {
			s.FinalAmount = 0
		} else {
			s.FinalAmount = total - used
		}
		s.ScreeningOver = now.After(startsAt.Add(time.Duration(durationMin) * time.Minute))
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		labels, err := r.seatLabels(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].SeatLabels = labels
	}
	return out, nil
}

// seatLabels collects the human-readable seat labels of a
// reservation's tickets, e.g. ["A1", "A2"].
func (r *ReservationRepo) seatLabels(ctx context.Context, reservationID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CONCAT(s.row_label, s.seat_number)
		 FROM tickets t JOIN seats s ON s.id = t.seat_id
		 WHERE t.reservation_id = ? ORDER BY s.row_label, s.seat_number`,
		reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// SeatLabels exposes the ticket seat labels for response enrichment.
func (r *ReservationRepo) SeatLabels(ctx context.Context, reservationID uint64) ([]string, error) {
	return r.seatLabels(ctx, reservationID)
}

// HolderName resolves the display name of a holder for the ticket view.
func (r *ReservationRepo) HolderName(ctx context.Context, h model.Holder) (string, error) {
	table := "customers"
	if h.Type == model.HolderGuest {
		table = "guests"
	}
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM `+table+` WHERE id = ?`, h.ID).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

// JoinLabels renders seat labels as a single display string.
func JoinLabels(labels []string) string { return strings.Join(labels, ", ") }
