package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/picobox/cinema-reservation/internal/repository"
	"github.com/picobox/cinema-reservation/internal/service"
)

// MyReservationsHandler serves the holder-scoped read endpoints: the
// reservation list, the single-reservation detail and the printable
// ticket.
type MyReservationsHandler struct {
	Engine *service.Engine
}

func NewMyReservationsHandler(engine *service.Engine) *MyReservationsHandler {
	if engine == nil {
		panic("nil engine passed to NewMyReservationsHandler")
	}
	return &MyReservationsHandler{Engine: engine}
}

// List handles GET /v1/my/reservations. It returns the caller's
// completed and canceled reservations, newest screening first.
func (h *MyReservationsHandler) List(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Engine.ListReservations(c.Request().Context(), holder)
	if err != nil {
		return engineError(c, err)
	}
	if items == nil {
		items = []repository.ReservationSummary{}
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// Detail handles GET /v1/reservations/:id. Only the owner may read it.
func (h *MyReservationsHandler) Detail(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	detail, err := h.Engine.GetReservationDetail(c.Request().Context(), reservationID, holder)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Ticket handles GET /v1/reservations/:id/ticket and returns the
// printable ticket projection.
func (h *MyReservationsHandler) Ticket(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ticket, err := h.Engine.GetTicket(c.Request().Context(), reservationID, holder)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}
