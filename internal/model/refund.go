package model

import "time"

// Refund request statuses.  PENDING requests sit in the admin queue;
// APPROVED and DENIED are terminal.
const (
    RefundPending  = "PENDING"
    RefundApproved = "APPROVED"
    RefundDenied   = "DENIED"
)

// RefundRequest is a queued, manually-resolved claim created by a
// cancellation that qualified for a refund.  Exactly one request is
// created per qualifying cancellation.  Approval credits the wallet
// and writes a REFUND ledger entry; denial reactivates the original
// booking.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user owed the refund.
//  BookingID   – the cancelled booking this claim refers to.
//  Label       – destination/route name copied from the booking.
//  AmountCents – refund amount after tiering, in minor units.
//  Status      – PENDING, APPROVED or DENIED.
//  RequestedAt – when the cancellation created the request.
//  ResolvedAt  – when an admin resolved it (null while pending).
type RefundRequest struct {
    ID          uint64     // refund_requests.id
    UserID      uint64     // refund_requests.user_id
    BookingID   uint64     // refund_requests.booking_id
    Label       string     // refund_requests.label
    AmountCents int64      // refund_requests.amount_cents
    Status      string     // refund_requests.status
    RequestedAt time.Time  // refund_requests.requested_at
    ResolvedAt  *time.Time // refund_requests.resolved_at (nullable)
}
