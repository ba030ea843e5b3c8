// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/picobox/cinema-reservation/internal/config"
	"github.com/picobox/cinema-reservation/internal/handler"
	"github.com/picobox/cinema-reservation/internal/middleware"
)

// Register mounts every route on the Echo instance.
//
//	/healthz                         liveness probe
//	/v1/auth/*                       session issuance (no auth)
//	/v1/screenings/:id/seats         public seat map (cached)
//	everything else under /v1        session required
//
// The token bucket guards the hold endpoints, where on-sale bursts
// concentrate. rdb may be nil, in which case rate limiting and caching
// are disabled.
func Register(e *echo.Echo, cfg config.Config, a *handler.AuthHandler, r *handler.ReservationHandler, m *handler.MyReservationsHandler, p *handler.PublicHandler, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1/auth")
	auth.POST("/signin", a.SignIn)
	auth.POST("/guest", a.GuestSession)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/screenings/:id/seats", p.SeatMap, cache)

	v1 := e.Group("/v1")
	v1.Use(middleware.Session(cfg.JWTSecret))

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	v1.POST("/screenings/:id/hold", r.HoldSeats, limit)
	v1.DELETE("/screenings/:id/hold", r.ReleaseSeats, limit)

	v1.POST("/reservations", r.CreateReservation)
	v1.POST("/reservations/:id/confirm", r.ConfirmPayment)
	v1.POST("/reservations/:id/cancel", r.CancelReservation)
	v1.GET("/reservations/:id", m.Detail)
	v1.GET("/reservations/:id/ticket", m.Ticket)
	v1.GET("/my/reservations", m.List)
}
