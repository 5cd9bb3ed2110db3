package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// AdminHandler bundles repositories and the booking engine for the
// studio staff endpoints.
type AdminHandler struct {
	Lessons      *repository.LessonRepo
	Groups       *repository.TicketGroupRepo
	Tickets      *repository.TicketRepo
	Members      *repository.MemberRepo
	Reservations *repository.ReservationRepo
	Waiting      *repository.WaitingListRepo
	Engine       bookingEngine
}

// bookingEngine is the slice of the engine the admin surface needs.
type bookingEngine interface {
	Cancel(ctx context.Context, callerID uint64, callerRole string, reservationID uint64) error
	ConfirmPayment(ctx context.Context, reservationID uint64) error
	Promote(ctx context.Context, lessonID uint64) (*model.Reservation, error)
	AdjustTicket(ctx context.Context, ticketID uint64, delta int32) (uint32, error)
}

func NewAdminHandler(lessons *repository.LessonRepo, groups *repository.TicketGroupRepo, tickets *repository.TicketRepo,
	members *repository.MemberRepo, reservations *repository.ReservationRepo, waiting *repository.WaitingListRepo,
	engine bookingEngine) *AdminHandler {
	if lessons == nil || groups == nil || tickets == nil || members == nil || reservations == nil || waiting == nil || engine == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{
		Lessons:      lessons,
		Groups:       groups,
		Tickets:      tickets,
		Members:      members,
		Reservations: reservations,
		Waiting:      waiting,
		Engine:       engine,
	}
}

// ----- DTOs -----

type lessonCreateReq struct {
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	TicketGroupID *uint64 `json:"ticket_group_id"`
	StartsAt      string  `json:"starts_at"` // RFC3339
	EndsAt        string  `json:"ends_at"`   // RFC3339
	MaxCapacity   uint32  `json:"max_capacity"`
}

type lessonUpdateReq struct {
	Title         *string `json:"title"`
	Category      *string `json:"category"`
	TicketGroupID *uint64 `json:"ticket_group_id"`
	StartsAt      *string `json:"starts_at"`
	EndsAt        *string `json:"ends_at"`
	MaxCapacity   *uint32 `json:"max_capacity"`
}

type groupCreateReq struct {
	Name string `json:"name"`
}

// CreateLesson publishes a new lesson on the schedule.
func (h *AdminHandler) CreateLesson(c echo.Context) error {
	var req lessonCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.ToUpper(strings.TrimSpace(req.Category))
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if !model.ValidCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if req.MaxCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.TicketGroupID != nil {
		if _, err := h.Groups.GetByID(ctx, *req.TicketGroupID); err != nil {
			return writeDomainError(c, err)
		}
	}

	lesson := &model.Lesson{
		Title:         req.Title,
		Category:      req.Category,
		TicketGroupID: req.TicketGroupID,
		StartsAt:      startsAt.UTC(),
		EndsAt:        endsAt.UTC(),
		MaxCapacity:   req.MaxCapacity,
	}
	if err := h.Lessons.Create(ctx, lesson); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create lesson failed"})
	}
	return c.JSON(http.StatusCreated, toLessonView(*lesson))
}

// UpdateLesson applies a partial update.  Lowering max_capacity below
// the current active count is allowed; existing reservations survive
// and the lesson simply stops admitting new ones.
func (h *AdminHandler) UpdateLesson(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	var req lessonUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lesson, err := h.Lessons.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "title cannot be empty"})
		}
		lesson.Title = t
	}
	if req.Category != nil {
		cat := strings.ToUpper(strings.TrimSpace(*req.Category))
		if !model.ValidCategory(cat) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		lesson.Category = cat
	}
	if req.TicketGroupID != nil {
		if *req.TicketGroupID == 0 {
			lesson.TicketGroupID = nil // zero clears the group binding
		} else {
			if _, err := h.Groups.GetByID(ctx, *req.TicketGroupID); err != nil {
				return writeDomainError(c, err)
			}
			lesson.TicketGroupID = req.TicketGroupID
		}
	}
	if req.StartsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
		}
		lesson.StartsAt = t.UTC()
	}
	if req.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
		}
		lesson.EndsAt = t.UTC()
	}
	if !lesson.EndsAt.After(lesson.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	if req.MaxCapacity != nil {
		if *req.MaxCapacity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
		}
		lesson.MaxCapacity = *req.MaxCapacity
	}

	if err := h.Lessons.Update(ctx, lesson); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toLessonView(*lesson))
}

// CreateTicketGroup registers a named bundle of lesson entitlements.
func (h *AdminHandler) CreateTicketGroup(c echo.Context) error {
	var req groupCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g := &model.TicketGroup{Name: req.Name}
	if err := h.Groups.Create(ctx, g); err != nil {
		if err == repository.ErrGroupNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "group name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create group failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": g.ID, "name": g.Name})
}

// ListTicketGroups returns all ticket groups.
func (h *AdminHandler) ListTicketGroups(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	groups, err := h.Groups.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(groups))
	for _, g := range groups {
		out = append(out, echo.Map{"id": g.ID, "name": g.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_groups": out})
}

// GetTicketGroup returns one ticket group by id.
func (h *AdminHandler) GetTicketGroup(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": g.ID, "name": g.Name})
}
