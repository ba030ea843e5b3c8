package service

import (
	"context"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/repository"
)

// ReservationDetail is the full read-only projection of one
// reservation for its owner: the aggregate plus its screening, seat
// and payment snapshot.  Nothing in the detail path mutates state.
type ReservationDetail struct {
	ID            uint64   `json:"id"`
	Status        string   `json:"status"`
	ReservedAt    string   `json:"reserved_at"`
	MovieTitle    string   `json:"movie_title"`
	PosterURL     string   `json:"poster_url,omitempty"`
	RatingName    string   `json:"rating_name,omitempty"`
	ScreeningTime string   `json:"screening_time"`
	ScreeningEnds string   `json:"screening_ends"`
	RoomName      string   `json:"room_name"`
	SeatLabels    []string `json:"seats"`
	TotalAmount   uint32   `json:"total_amount"`
	UsedPoints    uint32   `json:"used_points"`
	FinalAmount   uint32   `json:"final_amount"`
	PaymentStatus string   `json:"payment_status,omitempty"`
	PaymentMethod string   `json:"payment_method,omitempty"`
	ApprovedAt    string   `json:"approved_at,omitempty"`
}

// TicketView is the printable ticket projection of a reservation.
type TicketView struct {
	ReservationID uint64 `json:"reservation_id"`
	MovieTitle    string `json:"movie_title"`
	PosterURL     string `json:"poster_url,omitempty"`
	RatingName    string `json:"rating_name,omitempty"`
	ScreeningTime string `json:"screening_time"`
	ScreeningEnds string `json:"screening_ends"`
	RoomName      string `json:"room_name"`
	Seats         string `json:"seats"`
	SeatCount     int    `json:"seat_count"`
	HolderName    string `json:"holder_name"`
	ReservedAt    string `json:"reserved_at"`
	Status        string `json:"status"`
}

// ListReservations returns the caller's completed and canceled
// reservations, newest screening first.
func (e *Engine) ListReservations(ctx context.Context, h model.Holder) ([]repository.ReservationSummary, error) {
	return e.Reservations.ListByHolder(ctx, h, e.now())
}

// loadOwned loads a reservation and enforces ownership.
func (e *Engine) loadOwned(ctx context.Context, reservationID uint64, h model.Holder) (*model.Reservation, error) {
	res, err := e.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Holder() != h {
		return nil, repository.ErrNotOwner
	}
	return res, nil
}

// GetReservationDetail assembles the detail projection for one of the
// caller's reservations.
func (e *Engine) GetReservationDetail(ctx context.Context, reservationID uint64, h model.Holder) (*ReservationDetail, error) {
	res, err := e.loadOwned(ctx, reservationID, h)
	if err != nil {
		return nil, err
	}
	screening, err := e.Catalog.Screening(ctx, res.ScreeningID)
	if err != nil {
		return nil, err
	}
	labels, err := e.Reservations.SeatLabels(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	detail := &ReservationDetail{
		ID:            res.ID,
		Status:        string(res.Status),
		ReservedAt:    res.CreatedAt.UTC().Format(time.RFC3339),
		MovieTitle:    screening.MovieTitle,
		PosterURL:     screening.PosterURL,
		RatingName:    screening.RatingName,
		ScreeningTime: screening.StartsAt.UTC().Format(time.RFC3339),
		ScreeningEnds: screening.EndsAt().UTC().Format(time.RFC3339),
		RoomName:      screening.RoomName,
		SeatLabels:    labels,
		TotalAmount:   res.TotalAmount,
		UsedPoints:    res.UsedPoints,
		FinalAmount:   res.FinalAmount(),
	}
	payment, err := e.Reservations.PaymentByReservation(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	if payment != nil {
		detail.PaymentStatus = string(payment.Status)
		detail.PaymentMethod = string(payment.Method)
		detail.ApprovedAt = payment.ApprovedAt.UTC().Format(time.RFC3339)
	}
	return detail, nil
}

// GetTicket assembles the printable ticket for one of the caller's
// reservations.
func (e *Engine) GetTicket(ctx context.Context, reservationID uint64, h model.Holder) (*TicketView, error) {
	res, err := e.loadOwned(ctx, reservationID, h)
	if err != nil {
		return nil, err
	}
	screening, err := e.Catalog.Screening(ctx, res.ScreeningID)
	if err != nil {
		return nil, err
	}
	labels, err := e.Reservations.SeatLabels(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	name, err := e.Reservations.HolderName(ctx, h)
	if err != nil {
		return nil, err
	}
	return &TicketView{
		ReservationID: res.ID,
		MovieTitle:    screening.MovieTitle,
		PosterURL:     screening.PosterURL,
		RatingName:    screening.RatingName,
		ScreeningTime: screening.StartsAt.UTC().Format(time.RFC3339),
		ScreeningEnds: screening.EndsAt().UTC().Format(time.RFC3339),
		RoomName:      screening.RoomName,
		Seats:         repository.JoinLabels(labels),
		SeatCount:     len(labels),
		HolderName:    name,
		ReservedAt:    res.CreatedAt.UTC().Format(time.RFC3339),
		Status:        string(res.Status),
	}, nil
}
