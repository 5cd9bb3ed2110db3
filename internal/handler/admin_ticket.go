package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
)

// ----- DTOs -----

type ticketIssueReq struct {
	MemberID       uint64  `json:"member_id"`
	Category       string  `json:"category"`
	TicketGroupID  *uint64 `json:"ticket_group_id"`
	RemainingCount uint32  `json:"remaining_count"`
	ExpiresAt      string  `json:"expires_at"` // RFC3339
}

type ticketAdjustReq struct {
	Delta int32 `json:"delta"`
}

// IssueTicket sells a prepaid ticket to a member.  The ticket is bound
// either to a lesson category or to a ticket group; a group binding
// wins over the category at booking time.
func (h *AdminHandler) IssueTicket(c echo.Context) error {
	var req ticketIssueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id required"})
	}
	req.Category = strings.ToUpper(strings.TrimSpace(req.Category))
	if !model.ValidCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}
	if req.RemainingCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "remaining_count must be positive"})
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_at must be RFC3339"})
	}
	if !expiresAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_at must be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Members.GetByID(ctx, req.MemberID); err != nil {
		return writeDomainError(c, err)
	}
	if req.TicketGroupID != nil {
		if _, err := h.Groups.GetByID(ctx, *req.TicketGroupID); err != nil {
			return writeDomainError(c, err)
		}
	}

	t := &model.Ticket{
		MemberID:       req.MemberID,
		Category:       req.Category,
		TicketGroupID:  req.TicketGroupID,
		RemainingCount: req.RemainingCount,
		ExpiresAt:      expiresAt.UTC(),
	}
	if err := h.Tickets.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
	}
	return c.JSON(http.StatusCreated, toTicketView(*t))
}

// AdjustTicket applies a signed correction to a ticket balance.  The
// engine clamps the result at zero, so over-large negative deltas are
// safe; a zero delta is rejected.
func (h *AdminHandler) AdjustTicket(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req ticketAdjustReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Delta == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be non-zero"})
	}

	balance, err := h.Engine.AdjustTicket(c.Request().Context(), id, req.Delta)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": id, "remaining_count": balance})
}

// GetTicket returns one ticket for auditing.
func (h *AdminHandler) GetTicket(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toTicketView(*t))
}

// ListMemberTickets returns all tickets of one member for auditing.
func (h *AdminHandler) ListMemberTickets(c echo.Context) error {
	memberID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Members.GetByID(ctx, memberID); err != nil {
		return writeDomainError(c, err)
	}
	tickets, err := h.Tickets.ListByMember(ctx, memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]ticketView, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketView(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"member_id": memberID, "tickets": out})
}
