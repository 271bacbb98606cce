package model

import "time"

// Item statuses shared by trips and transport routes.  A coming_soon
// item is visible in the catalogue but cannot be booked yet.
const (
    ItemStatusActive     = "active"
    ItemStatusComingSoon = "coming_soon"
)

// Trip represents a bookable student trip as stored in the `trips`
// table.  CurrentBookings is the occupancy counter owned exclusively
// by the booking and cancellation engines; after every committed
// transaction 0 <= CurrentBookings holds, and the counter only
// exceeds MaxParticipants through the documented refund-denial path.
//
// Fields:
//  ID                  – primary key identifier.
//  Destination         – trip destination, also used as the booking label.
//  Description         – free-text description shown in the catalogue.
//  TripDate            – departure date/time; drives refund tiering.
//  OriginalPriceCents  – list price in minor units.
//  SalePriceCents      – price actually charged in minor units.
//  MaxParticipants     – hard capacity; must be at least 1, bookings
//                        stop once CurrentBookings reaches it.
//  CurrentBookings     – occupancy counter.
//  Status              – active or coming_soon.
//  Category            – catalogue grouping (trek, weekend, ...).
//  CreatedAt/UpdatedAt – row timestamps.
type Trip struct {
    ID                 uint64    // trips.id
    Destination        string    // trips.destination
    Description        string    // trips.description
    TripDate           time.Time // trips.trip_date
    OriginalPriceCents int64     // trips.original_price_cents
    SalePriceCents     int64     // trips.sale_price_cents
    MaxParticipants    uint32    // trips.max_participants
    CurrentBookings    uint32    // trips.current_bookings
    Status             string    // trips.status
    Category           string    // trips.category
    CreatedAt          time.Time // trips.created_at
    UpdatedAt          time.Time // trips.updated_at
}
