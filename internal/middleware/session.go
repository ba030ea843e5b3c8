// Package middleware contains reusable HTTP middleware: session token
// validation, Redis-backed rate limiting and response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/picobox/cinema-reservation/internal/model"
)

// holderKey is the context key under which the resolved holder is stored.
const holderKey = "holder"

// Session returns an Echo middleware that validates a Bearer session
// token and injects the resolved holder into the request context. The
// provided secret must match the one used when issuing tokens. Wrap
// protected routes with it so handlers can call HolderFrom(c).
func Session(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			h, ok := holderFromClaims(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			c.Set(holderKey, h)
			return next(c)
		}
	}
}

// HolderFrom returns the holder stored by Session. The second return
// value is false when the route is not behind the session middleware.
func HolderFrom(c echo.Context) (model.Holder, bool) {
	h, ok := c.Get(holderKey).(model.Holder)
	return h, ok
}

func holderFromClaims(claims jwt.MapClaims) (model.Holder, bool) {
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return model.Holder{}, false
	}
	typ, ok := claims["typ"].(string)
	if !ok {
		return model.Holder{}, false
	}
	switch model.HolderType(typ) {
	case model.HolderCustomer, model.HolderGuest:
		return model.Holder{Type: model.HolderType(typ), ID: uint64(sub)}, true
	}
	return model.Holder{}, false
}
