package repository

import (
	"context"
	"database/sql"

	"github.com/picobox/cinema-reservation/internal/model"
)

// CatalogRepo reads the screening/movie/room/price catalog the engine
// depends on.  The catalog itself is maintained elsewhere; the engine
// only ever reads it, so the repo exposes lookups and no mutations.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// Screening loads one screening joined with its movie and room
// snapshot.  Returns ErrScreeningNotFound when the id does not exist.
func (r *CatalogRepo) Screening(ctx context.Context, id uint64) (*model.Screening, error) {
	var s model.Screening
	err := r.db.QueryRowContext(ctx,
		`SELECT sc.id, sc.room_id, m.title, IFNULL(m.poster_url, ''), IFNULL(mr.rating_name, ''),
		        sc.starts_at, m.duration_min, rm.name
		 FROM screenings sc
		 JOIN movies m ON m.id = sc.movie_id
		 LEFT JOIN movie_ratings mr ON mr.id = m.rating_id
		 JOIN screening_rooms rm ON rm.id = sc.room_id
		 WHERE sc.id = ?`, id).
		Scan(&s.ID, &s.RoomID, &s.MovieTitle, &s.PosterURL, &s.RatingName,
			&s.StartsAt, &s.DurationMin, &s.RoomName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScreeningNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Price looks up the room x ticket-type price.  Returns
// ErrPriceNotFound when no price row is configured for the pair.
func (r *CatalogRepo) Price(ctx context.Context, roomID, ticketTypeID uint64) (uint32, error) {
	var price uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT price FROM room_ticket_type_prices WHERE room_id = ? AND ticket_type_id = ?`,
		roomID, ticketTypeID).Scan(&price)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrPriceNotFound
		}
		return 0, err
	}
	return price, nil
}
