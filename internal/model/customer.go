package model

import "time"

// Customer is a registered account with a loyalty point balance.
//
// Fields:
//  ID           – primary key identifier.
//  LoginID      – unique login name.
//  PasswordHash – bcrypt hash of the password.
//  Name         – display name printed on tickets.
//  Points       – current loyalty point balance; never negative.
//  CreatedAt    – registration timestamp.
type Customer struct {
	ID           uint64    // customers.id
	LoginID      string    // customers.login_id
	PasswordHash string    // customers.password_hash
	Name         string    // customers.name
	Points       uint32    // customers.points
	CreatedAt    time.Time // customers.created_at
}

// Guest is an anonymous session-scoped identity.  Guests can hold
// seats and pay for reservations but carry no point balance.
type Guest struct {
	ID        uint64    // guests.id
	Name      string    // guests.name
	CreatedAt time.Time // guests.created_at
}
