package model

import "time"

// Reservation payment statuses.  PENDING and PAID count against lesson
// capacity; CANCELLED does not.  CANCELLED is terminal: there is no
// transition out of it, and cancellation of an already-cancelled
// reservation is a no-op.
const (
    StatusPending   = "PENDING"
    StatusPaid      = "PAID"
    StatusCancelled = "CANCELLED"
)

// Reservation funding types.  TICKET means a prepaid ticket was (or
// will be) consumed for the booking; ONSITE means the member settles
// payment at the studio.
const (
    TypeTicket = "TICKET"
    TypeOnsite = "ONSITE"
)

// CanTransition reports whether a reservation may move from status
// `from` to status `to`.  The machine is PENDING -> PAID and
// PENDING/PAID -> CANCELLED; everything else is rejected.  Idempotent
// cancellation (CANCELLED -> CANCELLED) is handled by callers as a
// no-op rather than a transition.
func CanTransition(from, to string) bool {
    switch from {
    case StatusPending:
        return to == StatusPaid || to == StatusCancelled
    case StatusPaid:
        return to == StatusCancelled
    }
    return false
}

// CountsAgainstCapacity reports whether a reservation in the given
// status occupies a lesson slot.
func CountsAgainstCapacity(status string) bool {
    return status != StatusCancelled
}

// ValidType reports whether s names a known funding type.
func ValidType(s string) bool {
    return s == TypeTicket || s == TypeOnsite
}

// Reservation links one member to one lesson.  Reservations are never
// physically deleted; cancellation is a status change so that the
// booking history is preserved.
//
// Fields:
//  ID         – primary key identifier.
//  MemberID   – member who booked.
//  LessonID   – lesson being booked.
//  Status     – payment status (PENDING, PAID, CANCELLED).
//  Type       – funding type (TICKET, ONSITE).
//  TicketID   – ticket consumed for the booking (nullable, TICKET only).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Reservation struct {
    ID        uint64    // reservations.id
    MemberID  uint64    // reservations.member_id
    LessonID  uint64    // reservations.lesson_id
    Status    string    // reservations.status
    Type      string    // reservations.reservation_type
    TicketID  *uint64   // reservations.ticket_id (nullable)
    CreatedAt time.Time // reservations.created_at
    UpdatedAt time.Time // reservations.updated_at
}
