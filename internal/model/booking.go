package model

import "time"

// Item types stored in bookings.item_type.  They select which
// inventory table a booking points at.
const (
    ItemTrip    = "TRIP"
    ItemShuttle = "SHUTTLE"
)

// Booking statuses.
const (
    BookingActive    = "ACTIVE"
    BookingCancelled = "CANCELLED"
)

// Booking records a user's reservation against a trip or transport
// route.  AmountCents is captured at booking time so later price
// changes never drift historical records.  A (user, item) pair has at
// most one row: re-booking after a cancellation reactivates the
// existing row instead of inserting a new one.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who booked.
//  ItemType    – TRIP or SHUTTLE.
//  ItemID      – trips.id or transport_routes.id depending on ItemType.
//  Label       – destination or route name captured at booking time.
//  AmountCents – price paid, in minor units, captured at booking time.
//  Status      – ACTIVE or CANCELLED.
//  BookedAt    – when the booking was (re)activated.
//  UpdatedAt   – last update timestamp.
type Booking struct {
    ID          uint64    // bookings.id
    UserID      uint64    // bookings.user_id
    ItemType    string    // bookings.item_type
    ItemID      uint64    // bookings.item_id
    Label       string    // bookings.label
    AmountCents int64     // bookings.amount_cents
    Status      string    // bookings.status
    BookedAt    time.Time // bookings.booked_at
    UpdatedAt   time.Time // bookings.updated_at
}
