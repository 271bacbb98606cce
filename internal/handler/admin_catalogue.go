package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/repository"
)

// AdminCatalogueHandler manages the trip and transport catalogue.
// Admin routes see raw occupancy counters, not the slots-left view the
// public catalogue serves.
type AdminCatalogueHandler struct {
    Trips     *repository.TripRepo
    Transport *repository.TransportRepo
    Bookings  *repository.BookingRepo
}

func NewAdminCatalogueHandler(t *repository.TripRepo, tr *repository.TransportRepo, b *repository.BookingRepo) *AdminCatalogueHandler {
    return &AdminCatalogueHandler{Trips: t, Transport: tr, Bookings: b}
}

type tripReq struct {
    Destination        string `json:"destination"`
    Description        string `json:"description"`
    TripDate           string `json:"trip_date"` // RFC 3339
    OriginalPriceCents int64  `json:"original_price_cents"`
    SalePriceCents     int64  `json:"sale_price_cents"`
    MaxParticipants    uint32 `json:"max_participants"`
    Status             string `json:"status"`
    Category           string `json:"category"`
}

func (r tripReq) toModel() (model.Trip, error) {
    date, err := time.Parse(time.RFC3339, r.TripDate)
    if err != nil {
        return model.Trip{}, err
    }
    status := strings.ToLower(strings.TrimSpace(r.Status))
    if status == "" {
        status = model.ItemStatusComingSoon
    }
    return model.Trip{
        Destination:        strings.TrimSpace(r.Destination),
        Description:        r.Description,
        TripDate:           date.UTC(),
        OriginalPriceCents: r.OriginalPriceCents,
        SalePriceCents:     r.SalePriceCents,
        MaxParticipants:    r.MaxParticipants,
        Status:             status,
        Category:           strings.TrimSpace(r.Category),
    }, nil
}

func (r tripReq) validate() string {
    if strings.TrimSpace(r.Destination) == "" {
        return "destination required"
    }
    if r.SalePriceCents <= 0 || r.OriginalPriceCents <= 0 {
        return "prices must be positive"
    }
    if r.SalePriceCents > r.OriginalPriceCents {
        return "sale price above original price"
    }
    if r.MaxParticipants == 0 {
        return "max_participants must be positive"
    }
    return ""
}

// CreateTrip handles POST /v1/admin/trips.
func (h *AdminCatalogueHandler) CreateTrip(c echo.Context) error {
    var req tripReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    t, err := req.toModel()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_date must be RFC 3339"})
    }
    id, err := h.Trips.Create(c.Request().Context(), t)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateTrip handles PUT /v1/admin/trips/:id. Occupancy is never
// settable here; only the booking engine touches the counter.
func (h *AdminCatalogueHandler) UpdateTrip(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req tripReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    t, err := req.toModel()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_date must be RFC 3339"})
    }
    t.ID = id
    if err := h.Trips.Update(c.Request().Context(), t); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// SetTripStatus handles PATCH /v1/admin/trips/:id/status.
func (h *AdminCatalogueHandler) SetTripStatus(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToLower(strings.TrimSpace(body.Status))
    if status != model.ItemStatusActive && status != model.ItemStatusComingSoon {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active or coming_soon"})
    }
    if err := h.Trips.SetStatus(c.Request().Context(), id, status); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteTrip handles DELETE /v1/admin/trips/:id. Trips with active
// bookings cannot be removed.
func (h *AdminCatalogueHandler) DeleteTrip(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    bookers, err := h.Bookings.ListActiveForItem(c.Request().Context(), model.ItemTrip, id)
    if err != nil {
        return serviceError(c, err)
    }
    if len(bookers) > 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": "trip has active bookings"})
    }
    if err := h.Trips.Delete(c.Request().Context(), id); err != nil {
        return serviceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListTrips handles GET /v1/admin/trips: all trips including
// coming_soon.
func (h *AdminCatalogueHandler) ListTrips(c echo.Context) error {
    trips, err := h.Trips.List(c.Request().Context(), false)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, trips)
}

// TripBookers handles GET /v1/admin/trips/:id/bookers: the roster of
// students with an active booking.
func (h *AdminCatalogueHandler) TripBookers(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if _, err := h.Trips.GetByID(c.Request().Context(), id); err != nil {
        return serviceError(c, err)
    }
    bookers, err := h.Bookings.ListActiveForItem(c.Request().Context(), model.ItemTrip, id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, bookers)
}

type routeReq struct {
    RouteName     string `json:"route_name"`
    Kind          string `json:"kind"` // SHUTTLE | CARPOOL
    DepartureTime string `json:"departure_time"`
    TravelDate    string `json:"travel_date"` // RFC 3339
    PriceCents    int64  `json:"price_cents"`
    Capacity      uint32 `json:"capacity"`
    Status        string `json:"status"`
}

func (r routeReq) toModel() (model.TransportRoute, error) {
    date, err := time.Parse(time.RFC3339, r.TravelDate)
    if err != nil {
        return model.TransportRoute{}, err
    }
    status := strings.ToLower(strings.TrimSpace(r.Status))
    if status == "" {
        status = model.ItemStatusActive
    }
    return model.TransportRoute{
        RouteName:     strings.TrimSpace(r.RouteName),
        Kind:          strings.ToUpper(strings.TrimSpace(r.Kind)),
        DepartureTime: strings.TrimSpace(r.DepartureTime),
        TravelDate:    date.UTC(),
        PriceCents:    r.PriceCents,
        Capacity:      r.Capacity,
        Status:        status,
    }, nil
}

func (r routeReq) validate() string {
    if strings.TrimSpace(r.RouteName) == "" {
        return "route_name required"
    }
    kind := strings.ToUpper(strings.TrimSpace(r.Kind))
    if kind != model.TransportShuttle && kind != model.TransportCarpool {
        return "kind must be SHUTTLE or CARPOOL"
    }
    if r.PriceCents <= 0 {
        return "price_cents must be positive"
    }
    if r.Capacity == 0 {
        return "capacity must be positive"
    }
    return ""
}

// CreateRoute handles POST /v1/admin/transport.
func (h *AdminCatalogueHandler) CreateRoute(c echo.Context) error {
    var req routeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    tr, err := req.toModel()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be RFC 3339"})
    }
    id, err := h.Transport.Create(c.Request().Context(), tr)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateRoute handles PUT /v1/admin/transport/:id.
func (h *AdminCatalogueHandler) UpdateRoute(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req routeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    tr, err := req.toModel()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be RFC 3339"})
    }
    tr.ID = id
    if err := h.Transport.Update(c.Request().Context(), tr); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// SetRouteStatus handles PATCH /v1/admin/transport/:id/status.
func (h *AdminCatalogueHandler) SetRouteStatus(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToLower(strings.TrimSpace(body.Status))
    if status != model.ItemStatusActive && status != model.ItemStatusComingSoon {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active or coming_soon"})
    }
    if err := h.Transport.SetStatus(c.Request().Context(), id, status); err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteRoute handles DELETE /v1/admin/transport/:id.
func (h *AdminCatalogueHandler) DeleteRoute(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    bookers, err := h.Bookings.ListActiveForItem(c.Request().Context(), model.ItemShuttle, id)
    if err != nil {
        return serviceError(c, err)
    }
    if len(bookers) > 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": "route has active bookings"})
    }
    if err := h.Transport.Delete(c.Request().Context(), id); err != nil {
        return serviceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListRoutes handles GET /v1/admin/transport.
func (h *AdminCatalogueHandler) ListRoutes(c echo.Context) error {
    routes, err := h.Transport.List(c.Request().Context(), false)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, routes)
}

// RouteBookers handles GET /v1/admin/transport/:id/bookers.
func (h *AdminCatalogueHandler) RouteBookers(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if _, err := h.Transport.GetByID(c.Request().Context(), id); err != nil {
        return serviceError(c, err)
    }
    bookers, err := h.Bookings.ListActiveForItem(c.Request().Context(), model.ItemShuttle, id)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, bookers)
}
