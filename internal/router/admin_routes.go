package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/handler"
	"github.com/iliyamo/studio-lesson-booking/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Lessons ----
	g.POST("/lessons", a.CreateLesson)
	g.PUT("/lessons/:id", a.UpdateLesson)
	g.PATCH("/lessons/:id", a.UpdateLesson) // allow partial updates via PATCH as well
	// NOTE: Listing lessons is handled by the public browse API.

	// ---- Ticket groups ----
	g.POST("/ticket-groups", a.CreateTicketGroup)
	g.GET("/ticket-groups", a.ListTicketGroups)
	g.GET("/ticket-groups/:id", a.GetTicketGroup)

	// ---- Tickets ----
	g.POST("/tickets", a.IssueTicket)
	g.GET("/tickets/:id", a.GetTicket)
	g.POST("/tickets/:id/adjust", a.AdjustTicket)
	g.GET("/members/:id/tickets", a.ListMemberTickets)

	// ---- Reservations ----
	g.GET("/lessons/:id/reservations", a.ListLessonReservations)
	g.POST("/reservations/:id/confirm-payment", a.ConfirmPayment)
	// Staff override; distinct path so it never collides with the
	// member cancellation route.
	g.DELETE("/admin/reservations/:id", a.CancelReservation)

	// ---- Waiting list ----
	g.GET("/lessons/:id/waitlist", a.ListLessonWaitlist)
	g.POST("/lessons/:id/promote", a.PromoteLesson)
}
