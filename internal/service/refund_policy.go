package service

import (
    "time"

    "github.com/shopspring/decimal"
)

// Refund tiers for trip cancellations, keyed on how far ahead of
// departure the cancellation lands:
//
//	>= 48h  full refund
//	24-48h  half refund
//	< 24h   no refund
//
// Transport bookings always refund in full regardless of lead time.
const (
    fullRefundLead = 48 * time.Hour
    halfRefundLead = 24 * time.Hour
)

var half = decimal.NewFromFloat(0.5)

// tripRefundCents returns the refundable amount for a trip booking
// cancelled at `now` against a departure at `travel`. The boundaries
// are inclusive on the generous side: exactly 48h ahead is a full
// refund, exactly 24h ahead is a half refund.
func tripRefundCents(amountCents int64, travel, now time.Time) int64 {
    until := travel.Sub(now)
    switch {
    case until >= fullRefundLead:
        return amountCents
    case until >= halfRefundLead:
        return decimal.NewFromInt(amountCents).Mul(half).Round(0).IntPart()
    default:
        return 0
    }
}

// refundPercent reports the tier as a human-readable percentage for
// ledger details and notifications.
func refundPercent(amountCents, refundCents int64) string {
    if refundCents == 0 {
        return "0%"
    }
    if refundCents == amountCents {
        return "100%"
    }
    return "50%"
}
