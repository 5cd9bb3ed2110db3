// Package queue defines message payloads exchanged over the message broker.
package queue

// Notification kinds published by the booking engine.
const (
	KindReservationCancelled = "reservation.cancelled"
	KindMemberPromoted       = "waitlist.promoted"
)

// NotificationEvent is published whenever a reservation is cancelled or a
// waiting member is promoted into a freed slot. It carries enough detail for
// downstream consumers to notify the member without querying the primary
// database.
type NotificationEvent struct {
	Kind          string  `json:"kind"`
	ReservationID uint64  `json:"reservation_id"`
	MemberID      uint64  `json:"member_id"`
	LessonID      uint64  `json:"lesson_id"`
	Status        string  `json:"status"`
	Type          string  `json:"type"`
	TicketID      *uint64 `json:"ticket_id,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
