package handler // handler defines http handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-lesson-booking/internal/booking"
	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims arrive as float64; older middleware may store strings.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim stored by JWTAuth, empty when absent.
func getRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// pathID parses the named path parameter as a positive uint64.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// writeDomainError translates repository and engine sentinels into HTTP
// responses so every handler maps failures the same way.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrLessonNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrTicketGroupNotFound),
		errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrNoTicketAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no usable ticket for this lesson"})
	case errors.Is(err, repository.ErrInsufficientBalance):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket has no remaining uses"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting update, please retry"})
	case errors.Is(err, booking.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
