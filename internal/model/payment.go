package model

import "time"

// PaymentStatus mirrors the status reported by the payment gateway
// callback.  Only DONE and CANCELED are produced by this system; the
// remaining values may arrive from the gateway on the confirm callback.
type PaymentStatus string

const (
	PaymentDone     PaymentStatus = "DONE"
	PaymentCanceled PaymentStatus = "CANCELED"
	PaymentAborted  PaymentStatus = "ABORTED"
)

// PaymentMethod identifies how a reservation was paid for.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentEasyPay  PaymentMethod = "EASY_PAY"
)

// Payment is the record of a confirmed payment attached to a
// reservation.  At most one payment exists per reservation and it is
// persisted only when confirmation succeeds.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation this payment settles (unique).
//  OrderID       – order identifier handed to the payment gateway.
//  PaymentKey    – gateway key returned by the confirmation callback.
//  Method        – payment method reported by the gateway.
//  Amount        – gross amount before points.
//  UsedPoints    – points applied to the purchase.
//  FinalAmount   – Amount minus UsedPoints; the sum actually charged.
//  Status        – gateway payment status.
//  ApprovedAt    – when the payment was approved.
type Payment struct {
	ID            uint64        // payments.id
	ReservationID uint64        // payments.reservation_id
	OrderID       string        // payments.order_id
	PaymentKey    string        // payments.payment_key
	Method        PaymentMethod // payments.method
	Amount        uint32        // payments.amount
	UsedPoints    uint32        // payments.used_points
	FinalAmount   uint32        // payments.final_amount
	Status        PaymentStatus // payments.status
	ApprovedAt    time.Time     // payments.approved_at
}

// Refund records why a completed reservation was canceled.  One refund
// row is written per cancellation.
type Refund struct {
	ID            uint64    // refunds.id
	ReservationID uint64    // refunds.reservation_id
	Amount        uint32    // refunds.amount
	Reason        string    // refunds.reason
	CreatedAt     time.Time // refunds.created_at
}
