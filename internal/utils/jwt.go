package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/picobox/cinema-reservation/internal/model"
)

// SessionToken is a signed HS256 JWT identifying a reservation holder,
// together with its expiry. Customers and guests both carry one; the
// holder type travels in the "typ" claim so protected endpoints can
// resolve either kind without a database lookup.
type SessionToken struct {
	Token string
	Exp   time.Time
}

// NewSessionToken builds and signs a JWT for the given holder. Claims:
// subject (sub) is the holder id, typ is CUSTOMER or GUEST, plus the
// standard exp and iat timestamps.
func NewSessionToken(secret string, h model.Holder, ttlMin int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": h.ID,
		"typ": string(h.Type),
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}
