// Package queue defines message payloads exchanged over the message broker.
package queue

// Notification kinds carried on the notifications queue. Downstream
// consumers (the log writer here, an email worker in production) pick
// templates from the kind.
const (
    KindUserRegistered  = "user.registered"
    KindBookingConfirmed = "booking.confirmed"
    KindRefundRequested = "refund.requested"
    KindRefundResolved  = "refund.resolved"
    KindTopUpConfirmed  = "topup.confirmed"
)

// Notification is the envelope published for every outbound message.
// It contains enough information for downstream consumers to render a
// message without querying the primary database. Sending is always
// fire-and-forget: a publish failure is logged and never surfaces into
// the operation that triggered it.
type Notification struct {
    Kind           string `json:"kind"`
    UserID         uint64 `json:"user_id"`
    RecipientName  string `json:"recipient_name"`
    RecipientEmail string `json:"recipient_email"`
    ItemLabel      string `json:"item_label,omitempty"`
    AmountCents    int64  `json:"amount_cents,omitempty"`
    BookingID      uint64 `json:"booking_id,omitempty"`
    RefundID       uint64 `json:"refund_id,omitempty"`
    Outcome        string `json:"outcome,omitempty"` // refund.resolved: approved | denied
    OccurredAt     string `json:"occurred_at"`
}
