package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/uniscape-booking/internal/handler"
    "github.com/iliyamo/uniscape-booking/internal/middleware"
)

// RegisterAdmin registers the management endpoints under /v1/admin.
// Every route requires a valid JWT carrying the ADMIN role: catalogue
// CRUD, booker rosters, the refund approval queue, the top-up
// confirmation queue and the user directory.
func RegisterAdmin(e *echo.Echo, cat *handler.AdminCatalogueHandler, q *handler.AdminQueueHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )

    g.GET("/trips", cat.ListTrips)
    g.POST("/trips", cat.CreateTrip)
    g.PUT("/trips/:id", cat.UpdateTrip)
    g.PATCH("/trips/:id/status", cat.SetTripStatus)
    g.DELETE("/trips/:id", cat.DeleteTrip)
    g.GET("/trips/:id/bookers", cat.TripBookers)

    g.GET("/transport", cat.ListRoutes)
    g.POST("/transport", cat.CreateRoute)
    g.PUT("/transport/:id", cat.UpdateRoute)
    g.PATCH("/transport/:id/status", cat.SetRouteStatus)
    g.DELETE("/transport/:id", cat.DeleteRoute)
    g.GET("/transport/:id/bookers", cat.RouteBookers)

    g.GET("/refunds", q.ListRefunds)
    g.POST("/refunds/:id/approve", q.ApproveRefund)
    g.POST("/refunds/:id/deny", q.DenyRefund)

    g.GET("/topups", q.ListTopUps)
    g.POST("/topups/:id/confirm", q.ConfirmTopUp)
    g.DELETE("/topups/:id", q.DenyTopUp)

    g.GET("/users", q.ListUsers)
}
