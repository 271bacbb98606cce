package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/iliyamo/uniscape-booking/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/uniscape-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring systems probe this endpoint to
    // verify that the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token and returns a full new pair.
    g.POST("/refresh", a.Refresh)
    // Logout accepts either a refresh token in the body (ends that
    // session) or a bearer access token (ends all sessions).
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalogue endpoints.
// Guests can browse trips and transport routes before creating an
// account; no JWT or role middleware applies here.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
    e.GET("/v1/trips", p.ListTrips)
    e.GET("/v1/trips/:id", p.GetTrip)
    e.GET("/v1/transport", p.ListTransport)
    e.GET("/v1/transport/:id", p.GetTransport)
}
