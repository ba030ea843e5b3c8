package model

import "time"

// Screening represents a scheduled showing of a movie in a screening
// room.  The reservation engine reads screenings only to price tickets
// and enrich responses; creating and editing them belongs to the
// catalog side of the system.
//
// Fields:
//  ID          – primary key identifier.
//  RoomID      – screening room in which the movie plays.
//  MovieTitle  – title snapshot used for listings and tickets.
//  PosterURL   – movie poster for listings (may be empty).
//  RatingName  – age-rating label shown on tickets.
//  StartsAt    – when the screening begins.
//  DurationMin – running time in minutes; EndsAt derives from it.
type Screening struct {
	ID          uint64    // screenings.id
	RoomID      uint64    // screenings.room_id
	MovieTitle  string    // joined from movies.title
	PosterURL   string    // joined from movies.poster_url
	RatingName  string    // joined from movie_ratings.rating_name
	StartsAt    time.Time // screenings.starts_at
	DurationMin int       // joined from movies.duration_min
	RoomName    string    // joined from screening_rooms.name
}

// EndsAt returns the screening end time derived from the movie runtime.
func (s *Screening) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.DurationMin) * time.Minute)
}

// EarlyBird reports whether the screening qualifies for the early-bird
// discount, which applies to screenings starting between 06:00 and
// 10:59 local time.
func (s *Screening) EarlyBird() bool {
	h := s.StartsAt.Hour()
	return h >= 6 && h < 11
}
