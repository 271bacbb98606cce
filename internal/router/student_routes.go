package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/handler"
    "github.com/iliyamo/uniscape-booking/internal/middleware"
)

// RegisterStudent registers student-scoped endpoints under /v1. All
// routes require a valid JWT; admins may call them too, which keeps
// support workflows usable from one account. Students can book
// trips and transport seats, cancel their bookings, and manage their
// wallet.
func RegisterStudent(e *echo.Echo, b *handler.BookingHandler, w *handler.WalletHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("STUDENT", "ADMIN"),
    )
    // Note: GET /v1/trips and GET /v1/transport live on the public
    // router so guests can browse the catalogue. Student-specific
    // endpoints begin here.
    g.POST("/trips/:id/book", b.BookTrip)
    g.POST("/transport/:id/book", b.BookTransport)
    g.POST("/bookings/:id/cancel", b.Cancel)
    g.GET("/my-bookings", b.MyBookings)

    g.GET("/wallet", w.Balance)
    g.GET("/wallet/history", w.History)
    g.POST("/wallet/topups", w.InitiateTopUp)
    g.GET("/wallet/topups/:id", w.TopUpStatus)
}
