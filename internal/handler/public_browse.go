package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// PublicHandler serves the unauthenticated lesson browse endpoints.
// These routes are cache-friendly: they never expose live capacity
// numbers, only the published schedule.
type PublicHandler struct {
	Lessons *repository.LessonRepo
}

func NewPublicHandler(lessons *repository.LessonRepo) *PublicHandler {
	if lessons == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Lessons: lessons}
}

// lessonView is the JSON shape of a lesson in browse responses.
type lessonView struct {
	ID            uint64  `json:"id"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	TicketGroupID *uint64 `json:"ticket_group_id,omitempty"`
	StartsAt      string  `json:"starts_at"`
	EndsAt        string  `json:"ends_at"`
	MaxCapacity   uint32  `json:"max_capacity"`
}

func toLessonView(l model.Lesson) lessonView {
	return lessonView{
		ID:            l.ID,
		Title:         l.Title,
		Category:      l.Category,
		TicketGroupID: l.TicketGroupID,
		StartsAt:      l.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        l.EndsAt.UTC().Format(time.RFC3339),
		MaxCapacity:   l.MaxCapacity,
	}
}

// ListLessons returns upcoming lessons, soonest first.  Supports
// limit/offset query parameters; limit is clamped to 100.
func (h *PublicHandler) ListLessons(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lessons, err := h.Lessons.ListUpcoming(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]lessonView, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, toLessonView(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"lessons": out})
}

// GetLesson returns a single lesson by id.
func (h *PublicHandler) GetLesson(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Lessons.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toLessonView(*l))
}
