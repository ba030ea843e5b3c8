// Package queue defines the message payloads exchanged over the
// broker plus the publisher and the background consumer for the
// reservation.confirmed queue.
package queue

// ReservationConfirmedEvent is published when a reservation is
// successfully confirmed.  It carries enough context for downstream
// consumers to log, notify or feed analytics without querying the
// primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	HolderType    string   `json:"holder_type"`
	HolderID      uint64   `json:"holder_id"`
	ScreeningID   uint64   `json:"screening_id"`
	MovieTitle    string   `json:"movie_title"`
	RoomName      string   `json:"room_name"`
	StartsAt      string   `json:"starts_at"`
	SeatLabels    []string `json:"seats"`
	TotalAmount   uint32   `json:"total_amount"`
	FinalAmount   uint32   `json:"final_amount"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
