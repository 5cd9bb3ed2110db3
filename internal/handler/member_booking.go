package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/booking"
	"github.com/iliyamo/studio-lesson-booking/internal/model"
	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// MemberHandler serves the member-facing booking endpoints.  All
// consistency rules live in the booking engine; this layer only
// parses requests and shapes responses.
type MemberHandler struct {
	Engine       *booking.Engine
	Reservations *repository.ReservationRepo
	Tickets      *repository.TicketRepo
	Waiting      *repository.WaitingListRepo
}

func NewMemberHandler(engine *booking.Engine, reservations *repository.ReservationRepo, tickets *repository.TicketRepo, waiting *repository.WaitingListRepo) *MemberHandler {
	if engine == nil || reservations == nil || tickets == nil || waiting == nil {
		panic("nil dependency passed to NewMemberHandler")
	}
	return &MemberHandler{Engine: engine, Reservations: reservations, Tickets: tickets, Waiting: waiting}
}

// ----- DTOs -----

type bookReq struct {
	Type string `json:"type"` // TICKET | ONSITE
}

type reservationView struct {
	ID        uint64  `json:"id"`
	MemberID  uint64  `json:"member_id"`
	LessonID  uint64  `json:"lesson_id"`
	Status    string  `json:"status"`
	Type      string  `json:"reservation_type"`
	TicketID  *uint64 `json:"ticket_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type waitingView struct {
	ID        uint64 `json:"id"`
	LessonID  uint64 `json:"lesson_id"`
	MemberID  uint64 `json:"member_id"`
	CreatedAt string `json:"created_at"`
}

type ticketView struct {
	ID             uint64  `json:"id"`
	Category       string  `json:"category"`
	TicketGroupID  *uint64 `json:"ticket_group_id,omitempty"`
	RemainingCount uint32  `json:"remaining_count"`
	ExpiresAt      string  `json:"expires_at"`
}

func toReservationView(r model.Reservation) reservationView {
	return reservationView{
		ID:        r.ID,
		MemberID:  r.MemberID,
		LessonID:  r.LessonID,
		Status:    r.Status,
		Type:      r.Type,
		TicketID:  r.TicketID,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toWaitingView(w model.WaitingListEntry) waitingView {
	return waitingView{
		ID:        w.ID,
		LessonID:  w.LessonID,
		MemberID:  w.MemberID,
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTicketView(t model.Ticket) ticketView {
	return ticketView{
		ID:             t.ID,
		Category:       t.Category,
		TicketGroupID:  t.TicketGroupID,
		RemainingCount: t.RemainingCount,
		ExpiresAt:      t.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// Book attempts to reserve a slot on a lesson.  A confirmed booking
// answers 201 with the reservation; a full lesson answers 202 with the
// waiting-list entry.  Queueing is a success, not a failure.
func (h *MemberHandler) Book(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	resType := strings.ToUpper(strings.TrimSpace(req.Type))
	if !model.ValidType(resType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be TICKET or ONSITE"})
	}

	result, err := h.Engine.Book(c.Request().Context(), memberID, lessonID, resType)
	if err != nil {
		return writeDomainError(c, err)
	}
	switch result.Outcome {
	case booking.OutcomeQueued:
		return c.JSON(http.StatusAccepted, echo.Map{
			"outcome": result.Outcome,
			"entry":   toWaitingView(*result.Entry),
		})
	default:
		return c.JSON(http.StatusCreated, echo.Map{
			"outcome":     result.Outcome,
			"reservation": toReservationView(*result.Reservation),
		})
	}
}

// CancelReservation cancels the member's own reservation.  Repeating
// the call answers 204 again; cancellation is idempotent.
func (h *MemberHandler) CancelReservation(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Engine.Cancel(c.Request().Context(), memberID, getRole(c), id); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetReservation returns one reservation; members can only see their own.
func (h *MemberHandler) GetReservation(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	if res.MemberID != memberID {
		// Do not leak existence of other members' reservations.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, toReservationView(*res))
}

// ListMyReservations returns the member's reservations with lesson
// details, newest first.
func (h *MemberHandler) ListMyReservations(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Reservations.ListByMember(ctx, memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": details})
}

// ListMyTickets returns every ticket the member owns, including
// exhausted and expired ones so balances stay auditable.
func (h *MemberHandler) ListMyTickets(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListByMember(ctx, memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	now := time.Now().UTC()
	out := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, echo.Map{"ticket": toTicketView(t), "usable": t.Usable(now)})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}

// ListMyWaitlist returns the member's open waiting-list entries.
func (h *MemberHandler) ListMyWaitlist(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Waiting.ListByMember(ctx, memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]waitingView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toWaitingView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"waiting_list": out})
}
