package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/picobox/cinema-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints. The seat
// map is the hot path during on-sales and sits behind the Redis
// response cache, so a few seconds of staleness is expected.
type PublicHandler struct {
	Catalog *repository.CatalogRepo
	Seats   *repository.ScreeningSeatRepo
}

func NewPublicHandler(catalog *repository.CatalogRepo, seats *repository.ScreeningSeatRepo) *PublicHandler {
	if catalog == nil || seats == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Catalog: catalog, Seats: seats}
}

// SeatMap handles GET /v1/screenings/:id/seats. It returns every seat
// of the screening with its current status, ordered by row and number.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	screeningID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	ctx := c.Request().Context()

	screening, err := h.Catalog.Screening(ctx, screeningID)
	if err != nil {
		return engineError(c, err)
	}
	seats, err := h.Seats.ListByScreening(ctx, screeningID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if seats == nil {
		seats = []repository.SeatView{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"screening_id": screening.ID,
		"movie_title":  screening.MovieTitle,
		"room_name":    screening.RoomName,
		"starts_at":    screening.StartsAt.Format(time.RFC3339),
		"seats":        seats,
	})
}
