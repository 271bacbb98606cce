package model

import "time"

// Transport route kinds stored in transport_routes.kind.
const (
    TransportShuttle = "SHUTTLE"
    TransportCarpool = "CARPOOL"
)

// TransportRoute represents a shuttle or carpool route as stored in
// the `transport_routes` table.  Unlike trips, capacity is a hard
// limit: the booking engine refuses to book once CurrentBookings has
// reached Capacity.  The invariant 0 <= CurrentBookings <= Capacity
// holds after every committed booking transaction.
//
// Fields:
//  ID                  – primary key identifier.
//  RouteName           – e.g. "Main Gate to ISBT", also the booking label.
//  Kind                – SHUTTLE or CARPOOL.
//  DepartureTime       – human-readable departure slot, e.g. "10:00 AM".
//  TravelDate          – date the route runs.
//  PriceCents          – seat price in minor units.
//  Capacity            – hard seat limit.
//  CurrentBookings     – occupancy counter.
//  Status              – active or coming_soon.
//  CreatedAt/UpdatedAt – row timestamps.
type TransportRoute struct {
    ID              uint64    // transport_routes.id
    RouteName       string    // transport_routes.route_name
    Kind            string    // transport_routes.kind
    DepartureTime   string    // transport_routes.departure_time
    TravelDate      time.Time // transport_routes.travel_date
    PriceCents      int64     // transport_routes.price_cents
    Capacity        uint32    // transport_routes.capacity
    CurrentBookings uint32    // transport_routes.current_bookings
    Status          string    // transport_routes.status
    CreatedAt       time.Time // transport_routes.created_at
    UpdatedAt       time.Time // transport_routes.updated_at
}
