package model

import "time"

// Lesson categories form a small closed set.  Tickets are sold per
// category unless a ticket group overrides the match (see TicketGroup).
const (
    CategorySmallGroup = "SMALL_GROUP"
    CategoryLargeGroup = "LARGE_GROUP"
    CategoryPrivate    = "PRIVATE"
)

// ValidCategory reports whether s names one of the known lesson categories.
func ValidCategory(s string) bool {
    switch s {
    case CategorySmallGroup, CategoryLargeGroup, CategoryPrivate:
        return true
    }
    return false
}

// Lesson represents a scheduled class in the studio.  MaxCapacity is
// the number of seats that may be filled by non-cancelled
// reservations; the capacity gate recomputes the count from
// reservation rows inside each booking transaction, so the struct
// carries no cached counter.  TicketGroupID optionally links the
// lesson to a ticket group that widens which tickets can pay for it.
//
// Fields:
//  ID            – primary key identifier.
//  Title         – display name of the lesson.
//  Category      – lesson category (SMALL_GROUP, LARGE_GROUP, PRIVATE).
//  TicketGroupID – optional ticket group override (nullable).
//  StartsAt      – when the lesson begins.
//  EndsAt        – when the lesson ends (must be after StartsAt).
//  MaxCapacity   – maximum concurrent non-cancelled reservations.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Lesson struct {
    ID            uint64    // lessons.id
    Title         string    // lessons.title
    Category      string    // lessons.category
    TicketGroupID *uint64   // lessons.ticket_group_id (nullable)
    StartsAt      time.Time // lessons.starts_at
    EndsAt        time.Time // lessons.ends_at
    MaxCapacity   uint32    // lessons.max_capacity
    CreatedAt     time.Time // lessons.created_at
    UpdatedAt     time.Time // lessons.updated_at
}
