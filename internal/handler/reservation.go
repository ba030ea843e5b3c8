package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/picobox/cinema-reservation/internal/model"
	"github.com/picobox/cinema-reservation/internal/service"
)

// ReservationHandler exposes the seat hold and reservation lifecycle
// over HTTP. All routes require a session; the engine enforces hold
// ownership and state transitions.
type ReservationHandler struct {
	Engine *service.Engine
}

func NewReservationHandler(engine *service.Engine) *ReservationHandler {
	if engine == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine}
}

type holdReq struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

// HoldSeats handles POST /v1/screenings/:id/hold. Seats are held
// independently, so the response carries a per-seat result list. The
// status is 201 when every seat was held and 207 when only some were;
// callers must read the results either way.
func (h *ReservationHandler) HoldSeats(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	screeningID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	var req holdReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	result, err := h.Engine.HoldSeats(c.Request().Context(), screeningID, req.SeatIDs, holder)
	if err != nil {
		return engineError(c, err)
	}

	status := http.StatusCreated
	if len(result.Held()) < len(result.Results) {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, echo.Map{
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
		"results":    seatResultsJSON(result.Results),
	})
}

// ReleaseSeats handles DELETE /v1/screenings/:id/hold. Only the holder
// that placed a hold may release it; every seat reports its own outcome.
func (h *ReservationHandler) ReleaseSeats(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	screeningID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	var req holdReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	results, err := h.Engine.ReleaseSeats(c.Request().Context(), screeningID, req.SeatIDs, holder)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": seatResultsJSON(results)})
}

type ticketTypeReq struct {
	TicketTypeID uint64 `json:"ticket_type_id"`
	Count        int    `json:"count"`
}

type createReservationReq struct {
	ScreeningID uint64          `json:"screening_id"`
	SeatIDs     []uint64        `json:"seat_ids"`
	TicketTypes []ticketTypeReq `json:"ticket_types"`
	UsePoints   uint32          `json:"use_points"`
}

// CreateReservation handles POST /v1/reservations. Every named seat
// must currently be held by the caller; on success the reservation is
// created PENDING with its own payment deadline and the seats stop
// aging as holds.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ScreeningID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "screening_id is required"})
	}

	in := service.PendingReservationInput{
		ScreeningID: req.ScreeningID,
		SeatIDs:     req.SeatIDs,
		UsePoints:   req.UsePoints,
	}
	for _, tt := range req.TicketTypes {
		in.TicketTypes = append(in.TicketTypes, service.TicketTypeCount{
			TicketTypeID: tt.TicketTypeID,
			Count:        tt.Count,
		})
	}

	pending, err := h.Engine.CreatePendingReservation(c.Request().Context(), in, holder)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": pending.ReservationID,
		"status":         string(pending.Status),
		"movie_title":    pending.MovieTitle,
		"seats":          pending.SeatLabels,
		"total_amount":   pending.TotalAmount,
		"used_points":    pending.UsedPoints,
		"final_amount":   pending.FinalAmount,
		"expires_at":     pending.ExpiresAt.Format(time.RFC3339),
	})
}

type confirmReq struct {
	OrderID    string `json:"order_id"`
	PaymentKey string `json:"payment_key"`
	Method     string `json:"method"`
	UsedPoints uint32 `json:"used_points"`
}

// ConfirmPayment handles POST /v1/reservations/:id/confirm. It is the
// gateway success callback: idempotent, owner-only, and rejected with a
// conflict once the reservation has left PENDING.
func (h *ReservationHandler) ConfirmPayment(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.OrderID == "" || req.PaymentKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id and payment_key are required"})
	}
	method := model.PaymentMethod(req.Method)
	switch method {
	case model.PaymentCard, model.PaymentTransfer, model.PaymentEasyPay:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment method"})
	}

	payment, err := h.Engine.ConfirmPayment(c.Request().Context(), service.ConfirmPaymentInput{
		ReservationID: reservationID,
		OrderID:       req.OrderID,
		PaymentKey:    req.PaymentKey,
		Method:        method,
		UsedPoints:    req.UsedPoints,
	}, holder)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": payment.ReservationID,
		"order_id":       payment.OrderID,
		"status":         string(payment.Status),
		"amount":         payment.Amount,
		"used_points":    payment.UsedPoints,
		"final_amount":   payment.FinalAmount,
		"approved_at":    payment.ApprovedAt.Format(time.RFC3339),
	})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// CancelReservation handles POST /v1/reservations/:id/cancel. Completed
// reservations may be canceled until ten minutes after the screening
// starts; the refund and point compensation are recorded by the engine.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	holder, err := currentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.Engine.CancelReservation(c.Request().Context(), reservationID, req.Reason, holder); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": reservationID,
		"status":         string(model.ReservationCanceled),
	})
}
