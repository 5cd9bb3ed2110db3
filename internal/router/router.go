package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/studio-lesson-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/studio-lesson-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems probe this endpoint to
	// verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	auth := e.Group("/v1/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/refresh-access", a.RefreshAccess)
	// Logout validates its own credentials so that a client holding
	// only a refresh token can still end its session.
	auth.POST("/logout", a.Logout)

	protected := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	protected.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated lesson browse routes.
// cacheMW wraps the read-only endpoints in the Redis response cache;
// pass a pass-through middleware when caching is disabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheMW echo.MiddlewareFunc) {
	g := e.Group("/v1", cacheMW)
	g.GET("/lessons", p.ListLessons)
	g.GET("/lessons/:id", p.GetLesson)
}
