package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/picobox/cinema-reservation/internal/repository"
	"github.com/picobox/cinema-reservation/internal/service"
)

func TestSeatReason(t *testing.T) {
	assert.Equal(t, "", seatReason(nil))
	assert.Equal(t, "not_found", seatReason(repository.ErrSeatNotFound))
	assert.Equal(t, "unavailable", seatReason(repository.ErrSeatUnavailable))
	assert.Equal(t, "not_held", seatReason(repository.ErrSeatNotHeld))
	assert.Equal(t, "not_hold_owner", seatReason(repository.ErrNotHoldOwner))
	assert.Equal(t, "error", seatReason(errors.New("boom")))
}

func TestEngineErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{repository.ErrScreeningNotFound, http.StatusNotFound},
		{repository.ErrReservationNotFound, http.StatusNotFound},
		{repository.ErrSeatNotFound, http.StatusNotFound},
		{repository.ErrPriceNotFound, http.StatusNotFound},
		{repository.ErrNotOwner, http.StatusForbidden},
		{repository.ErrNotHoldOwner, http.StatusForbidden},
		{repository.ErrAlreadyProcessed, http.StatusConflict},
		{repository.ErrSeatUnavailable, http.StatusConflict},
		{repository.ErrSeatNotHeld, http.StatusConflict},
		{service.ErrCancelDeadlinePassed, http.StatusConflict},
		{repository.ErrGuestPointsNotAllowed, http.StatusBadRequest},
		{repository.ErrInsufficientPoints, http.StatusPaymentRequired},
		{service.ErrNoSeats, http.StatusBadRequest},
		{service.ErrCountMismatch, http.StatusBadRequest},
		{service.ErrPointsExceedTotal, http.StatusBadRequest},
		{service.ErrAmountMismatch, http.StatusBadRequest},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := engineError(c, tc.err)
		assert.NoError(t, err)
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestPathID(t *testing.T) {
	e := echo.New()
	newCtx := func(raw string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		return c
	}

	id, err := pathID(newCtx("42"), "id")
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	_, err = pathID(newCtx("0"), "id")
	assert.Error(t, err)

	_, err = pathID(newCtx("abc"), "id")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
