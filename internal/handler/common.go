// Package handler contains the HTTP handlers. Handlers bind and
// validate requests, call into the engine or repositories, and map
// domain errors onto HTTP status codes. All state transitions live in
// the service layer.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/picobox/cinema-reservation/internal/middleware"
	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/repository"
	"github.com/picobox/cinema-reservation/internal/service"
)

// currentHolder extracts the session holder injected by the session
// middleware.
func currentHolder(c echo.Context) (model.Holder, error) {
	h, ok := middleware.HolderFrom(c)
	if !ok {
		return model.Holder{}, errors.New("no holder in context")
	}
	return h, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// seatReason maps a per-seat error to the machine-readable reason
// reported in batch responses. Batches apply per seat, so one response
// can carry several different reasons.
func seatReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repository.ErrSeatNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrSeatUnavailable):
		return "unavailable"
	case errors.Is(err, repository.ErrSeatNotHeld):
		return "not_held"
	case errors.Is(err, repository.ErrNotHoldOwner):
		return "not_hold_owner"
	default:
		return "error"
	}
}

// seatResultsJSON converts engine seat results into response entries.
func seatResultsJSON(results []service.SeatResult) []echo.Map {
	out := make([]echo.Map, 0, len(results))
	for _, r := range results {
		entry := echo.Map{"seat_id": r.SeatID, "ok": r.OK()}
		if reason := seatReason(r.Err); reason != "" {
			entry["reason"] = reason
		}
		out = append(out, entry)
	}
	return out
}

// engineError writes the JSON error response for a failed engine call.
func engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrScreeningNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case errors.Is(err, repository.ErrPriceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown ticket type for this room"})
	case errors.Is(err, repository.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the reservation owner"})
	case errors.Is(err, repository.ErrNotHoldOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrAlreadyProcessed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already processed"})
	case errors.Is(err, repository.ErrSeatUnavailable),
		errors.Is(err, repository.ErrSeatNotHeld):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrCancelDeadlinePassed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation deadline passed"})
	case errors.Is(err, repository.ErrGuestPointsNotAllowed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests cannot use points"})
	case errors.Is(err, repository.ErrInsufficientPoints):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "insufficient points"})
	case errors.Is(err, service.ErrNoSeats),
		errors.Is(err, service.ErrCountMismatch),
		errors.Is(err, service.ErrPointsExceedTotal),
		errors.Is(err, service.ErrAmountMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
