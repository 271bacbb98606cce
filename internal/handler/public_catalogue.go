package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/repository"
)

// PublicHandler serves the unauthenticated catalogue: trips and
// transport routes that anyone can browse before signing up. Prices
// come back in cents; occupancy is exposed as slots left rather than
// raw counters.
type PublicHandler struct {
    Trips     *repository.TripRepo
    Transport *repository.TransportRepo
}

func NewPublicHandler(t *repository.TripRepo, tr *repository.TransportRepo) *PublicHandler {
    return &PublicHandler{Trips: t, Transport: tr}
}

type tripView struct {
    ID                 uint64    `json:"id"`
    Destination        string    `json:"destination"`
    Description        string    `json:"description"`
    TripDate           time.Time `json:"trip_date"`
    OriginalPriceCents int64     `json:"original_price_cents"`
    SalePriceCents     int64     `json:"sale_price_cents"`
    SlotsLeft          uint32    `json:"slots_left"`
    Status             string    `json:"status"`
    Category           string    `json:"category"`
}

type routeView struct {
    ID            uint64    `json:"id"`
    RouteName     string    `json:"route_name"`
    Kind          string    `json:"kind"`
    DepartureTime string    `json:"departure_time"`
    TravelDate    time.Time `json:"travel_date"`
    PriceCents    int64     `json:"price_cents"`
    SeatsLeft     uint32    `json:"seats_left"`
    Status        string    `json:"status"`
}

func toTripView(t model.Trip) tripView {
    var left uint32
    if t.MaxParticipants > t.CurrentBookings {
        left = t.MaxParticipants - t.CurrentBookings
    }
    return tripView{
        ID:                 t.ID,
        Destination:        t.Destination,
        Description:        t.Description,
        TripDate:           t.TripDate,
        OriginalPriceCents: t.OriginalPriceCents,
        SalePriceCents:     t.SalePriceCents,
        SlotsLeft:          left,
        Status:             t.Status,
        Category:           t.Category,
    }
}

func toRouteView(r model.TransportRoute) routeView {
    var left uint32
    if r.Capacity > r.CurrentBookings {
        left = r.Capacity - r.CurrentBookings
    }
    return routeView{
        ID:            r.ID,
        RouteName:     r.RouteName,
        Kind:          r.Kind,
        DepartureTime: r.DepartureTime,
        TravelDate:    r.TravelDate,
        PriceCents:    r.PriceCents,
        SeatsLeft:     left,
        Status:        r.Status,
    }
}

// ListTrips handles GET /v1/trips: active trips only, soonest first.
func (h *PublicHandler) ListTrips(c echo.Context) error {
    trips, err := h.Trips.List(c.Request().Context(), true)
    if err != nil {
        return serviceError(c, err)
    }
    out := make([]tripView, 0, len(trips))
    for _, t := range trips {
        out = append(out, toTripView(t))
    }
    return c.JSON(http.StatusOK, out)
}

// GetTrip handles GET /v1/trips/:id.
func (h *PublicHandler) GetTrip(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    t, err := h.Trips.GetByID(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, toTripView(t))
}

// ListTransport handles GET /v1/transport: active routes.
func (h *PublicHandler) ListTransport(c echo.Context) error {
    routes, err := h.Transport.List(c.Request().Context(), true)
    if err != nil {
        return serviceError(c, err)
    }
    out := make([]routeView, 0, len(routes))
    for _, r := range routes {
        out = append(out, toRouteView(r))
    }
    return c.JSON(http.StatusOK, out)
}

// GetTransport handles GET /v1/transport/:id.
func (h *PublicHandler) GetTransport(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    r, err := h.Transport.GetByID(c.Request().Context(), id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, toRouteView(r))
}
