package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/model"
    "github.com/iliyamo/uniscape-booking/internal/service"
)

// BookingHandler exposes the student-facing booking endpoints. The
// heavy lifting lives in service.BookingService; this layer parses the
// request, runs the operation and maps errors to statuses.
type BookingHandler struct {
    Bookings *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
    return &BookingHandler{Bookings: b}
}

// idempotencyKey reads the optional Idempotency-Key header. Clients
// that retry a booking after a timeout send the same key so the retry
// is rejected instead of double-charged.
func idempotencyKey(c echo.Context) string {
    return strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
}

type bookingView struct {
    ID          uint64 `json:"id"`
    ItemType    string `json:"item_type"`
    ItemID      uint64 `json:"item_id"`
    Label       string `json:"label"`
    AmountCents int64  `json:"amount_cents"`
    Status      string `json:"status"`
}

func toBookingView(b model.Booking) bookingView {
    return bookingView{
        ID:          b.ID,
        ItemType:    b.ItemType,
        ItemID:      b.ItemID,
        Label:       b.Label,
        AmountCents: b.AmountCents,
        Status:      b.Status,
    }
}

// BookTrip handles POST /v1/trips/:id/book.
func (h *BookingHandler) BookTrip(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    tripID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }
    b, balance, err := h.Bookings.BookTrip(c.Request().Context(), uid, tripID, idempotencyKey(c))
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking":       toBookingView(b),
        "balance_cents": balance,
    })
}

// BookTransport handles POST /v1/transport/:id/book.
func (h *BookingHandler) BookTransport(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    routeID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
    }
    b, balance, err := h.Bookings.BookShuttle(c.Request().Context(), uid, routeID, idempotencyKey(c))
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking":       toBookingView(b),
        "balance_cents": balance,
    })
}

// Cancel handles POST /v1/bookings/:id/cancel. The response reports
// the refund tier and the amount placed in the admin queue, which can
// be zero for a late trip cancellation.
func (h *BookingHandler) Cancel(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    res, err := h.Bookings.Cancel(c.Request().Context(), uid, bookingID)
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "cancelled":      true,
        "refund_cents":   res.RefundCents,
        "refund_percent": res.RefundPercent,
    })
}

// MyBookings handles GET /v1/my-bookings. The optional ?type=TRIP or
// ?type=SHUTTLE query filters by item kind.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    itemType := strings.ToUpper(strings.TrimSpace(c.QueryParam("type")))
    if itemType != "" && itemType != model.ItemTrip && itemType != model.ItemShuttle {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type filter"})
    }
    list, err := h.Bookings.MyBookings(c.Request().Context(), uid, itemType)
    if err != nil {
        return serviceError(c, err)
    }
    out := make([]bookingView, 0, len(list))
    for _, b := range list {
        out = append(out, toBookingView(b))
    }
    return c.JSON(http.StatusOK, out)
}
