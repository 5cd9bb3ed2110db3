package handler

// This file holds the staff-side reservation endpoints: listing a
// lesson's reservations, confirming on-site payments, overriding
// cancellations, inspecting the waiting list and forcing a promotion
// sweep.  They are separate from the lesson management handlers to
// keep concerns isolated.

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// parseDateRange reads optional from/to query parameters.  RFC3339 and
// plain dates are both accepted; a plain date covers the whole day in
// UTC (to is exclusive).
func parseDateRange(c echo.Context) (repository.DateRange, bool) {
	var dr repository.DateRange
	parse := func(v string) (time.Time, bool) {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t.UTC(), true
		}
		return time.Time{}, false
	}
	if v := c.QueryParam("from"); v != "" {
		t, ok := parse(v)
		if !ok {
			return dr, false
		}
		dr.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, ok := parse(v)
		if !ok {
			return dr, false
		}
		if len(v) == len("2006-01-02") {
			t = t.Add(24 * time.Hour)
		}
		dr.To = &t
	}
	return dr, true
}

// ListLessonReservations returns every reservation on a lesson,
// optionally filtered by creation time.
func (h *AdminHandler) ListLessonReservations(c echo.Context) error {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	dr, ok := parseDateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be RFC3339 or YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Lessons.GetByID(ctx, lessonID); err != nil {
		return writeDomainError(c, err)
	}
	details, err := h.Reservations.ListByLesson(ctx, lessonID, dr)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lesson_id": lessonID, "reservations": details})
}

// ConfirmPayment marks a PENDING reservation as PAID once the member
// settles at the front desk.  Confirming twice is a no-op.
func (h *AdminHandler) ConfirmPayment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Engine.ConfirmPayment(c.Request().Context(), id); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_id": id, "status": "PAID"})
}

// CancelReservation cancels any member's reservation (staff override).
func (h *AdminHandler) CancelReservation(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Engine.Cancel(c.Request().Context(), callerID, getRole(c), id); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListLessonWaitlist exposes the queue ordering for a lesson so staff
// can answer "where am I in line" questions.
func (h *AdminHandler) ListLessonWaitlist(c echo.Context) error {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Lessons.GetByID(ctx, lessonID); err != nil {
		return writeDomainError(c, err)
	}
	entries, err := h.Waiting.ListByLesson(ctx, lessonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]waitingView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toWaitingView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"lesson_id": lessonID, "waiting_list": out})
}

// PromoteLesson runs one promotion sweep on a lesson.  Normally the
// engine promotes automatically after a cancellation; this endpoint
// recovers slots freed by out-of-band changes such as a capacity
// increase.
func (h *AdminHandler) PromoteLesson(c echo.Context) error {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	promoted, err := h.Engine.Promote(c.Request().Context(), lessonID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if promoted == nil {
		return c.JSON(http.StatusOK, echo.Map{"lesson_id": lessonID, "promoted": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"lesson_id": lessonID, "promoted": toReservationView(*promoted)})
}
