// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking engine to distinguish between different
// failure scenarios. For example, ErrForbidden indicates that the
// current member is not authorized to act on a resource owned by
// someone else, while ErrInsufficientBalance signals that a ticket
// decrement found no remaining uses.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because
// of conflicting state that concurrent retries will not fix, such
// as confirming payment on a cancelled reservation. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrLessonNotFound indicates that a lesson was not located in the DB.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrTicketNotFound indicates that a ticket was not located in the DB.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrReservationNotFound indicates that a reservation was not located in the DB.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrTicketGroupNotFound indicates that a ticket group was not located in the DB.
var ErrTicketGroupNotFound = errors.New("ticket group not found")

// ErrInsufficientBalance is returned by the conditional ticket
// decrement when the remaining count is already zero. The row is
// left untouched in that case.
var ErrInsufficientBalance = errors.New("insufficient ticket balance")

// ErrGroupNameExists is returned when inserting a ticket group whose
// name collides with the unique key on ticket_groups.name.
var ErrGroupNameExists = errors.New("ticket group name already exists")
