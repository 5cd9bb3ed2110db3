package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/handler"
	"github.com/iliyamo/studio-lesson-booking/internal/middleware"
)

// RegisterMember registers member-scoped endpoints under /v1.  All routes
// require a valid JWT and the MEMBER role.  Members can book lessons,
// cancel their own reservations and inspect their reservations, tickets
// and waiting-list entries.  limiterMW shields the write endpoints from
// request storms; the engine's own locking keeps data consistent either
// way.
func RegisterMember(e *echo.Echo, h *handler.MemberHandler, jwtSecret string, limiterMW echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MEMBER", "ADMIN"),
	)

	// Booking and cancellation are the hot paths; rate limit them.
	g.POST("/lessons/:id/reservations", h.Book, limiterMW)
	g.DELETE("/reservations/:id", h.CancelReservation, limiterMW)

	g.GET("/reservations/:id", h.GetReservation)
	g.GET("/my-reservations", h.ListMyReservations)
	g.GET("/my-tickets", h.ListMyTickets)
	g.GET("/my-waitlist", h.ListMyWaitlist)
}
