package model

import "time"

// TicketGroup is a named bundle of lesson categories.  When a lesson
// references a group, any ticket bound to the same group can pay for
// it regardless of the lesson's raw category.  Group names are unique
// (enforced by the database).
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique group name.
//  CreatedAt – creation timestamp.
type TicketGroup struct {
    ID        uint64    // ticket_groups.id
    Name      string    // ticket_groups.name
    CreatedAt time.Time // ticket_groups.created_at
}

// Ticket is a prepaid entitlement bundle owned by exactly one member.
// It is bound either to a lesson category or to a ticket group and
// carries a remaining-use counter plus an expiry instant.
//
// Invariant: RemainingCount never goes below zero.  Decrements happen
// only through the booking/promotion flow, increments only through
// the administrative adjust operation, both guarded by row locks.
//
// Fields:
//  ID             – primary key identifier.
//  MemberID       – owning member.
//  Category       – lesson category the ticket pays for.
//  TicketGroupID  – optional group binding; takes precedence over Category.
//  RemainingCount – uses left on the ticket (>= 0).
//  ExpiresAt      – instant after which the ticket is unusable.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Ticket struct {
    ID             uint64    // tickets.id
    MemberID       uint64    // tickets.member_id
    Category       string    // tickets.category
    TicketGroupID  *uint64   // tickets.ticket_group_id (nullable)
    RemainingCount uint32    // tickets.remaining_count
    ExpiresAt      time.Time // tickets.expires_at
    CreatedAt      time.Time // tickets.created_at
    UpdatedAt      time.Time // tickets.updated_at
}

// Usable reports whether the ticket can fund a booking at instant now:
// it must have at least one use left and must not be past its expiry.
// A ticket past ExpiresAt is unusable even when RemainingCount > 0.
func (t Ticket) Usable(now time.Time) bool {
    return t.RemainingCount > 0 && t.ExpiresAt.After(now)
}

// Matches reports whether the ticket can pay for a lesson.  A group
// binding is exclusive on both sides: a lesson bound to a group
// matches only tickets of the same group, and a group-bound ticket
// never funds a group-less lesson even when the raw categories agree.
// Only unbound tickets match on category equality.
func (t Ticket) Matches(l Lesson) bool {
    if l.TicketGroupID != nil {
        return t.TicketGroupID != nil && *t.TicketGroupID == *l.TicketGroupID
    }
    return t.TicketGroupID == nil && t.Category == l.Category
}
