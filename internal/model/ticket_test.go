package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketUsable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		remaining uint32
		expiresAt time.Time
		want      bool
	}{
		{"remaining and not expired", 3, now.Add(time.Hour), true},
		{"zero remaining", 0, now.Add(time.Hour), false},
		{"expired", 3, now.Add(-time.Second), false},
		{"expires exactly now", 3, now, false},
		{"expired and empty", 0, now.Add(-time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := Ticket{RemainingCount: tc.remaining, ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.want, tk.Usable(now))
		})
	}
}

func TestTicketMatches(t *testing.T) {
	groupA := uint64(1)
	groupB := uint64(2)

	categoryLesson := Lesson{Category: CategorySmallGroup}
	groupLesson := Lesson{Category: CategorySmallGroup, TicketGroupID: &groupA}

	t.Run("category equality when lesson has no group", func(t *testing.T) {
		assert.True(t, Ticket{Category: CategorySmallGroup}.Matches(categoryLesson))
		assert.False(t, Ticket{Category: CategoryPrivate}.Matches(categoryLesson))
	})

	t.Run("group-bound ticket never funds a group-less lesson", func(t *testing.T) {
		// Binding is exclusive both ways: even with the right raw
		// category, a ticket tied to a group only pays for lessons of
		// that group.  Mirrors the ticket_group_id IS NULL filter in
		// the SQL lookup.
		assert.False(t, Ticket{Category: CategorySmallGroup, TicketGroupID: &groupA}.Matches(categoryLesson))
	})

	t.Run("group binding wins over category", func(t *testing.T) {
		// A matching category alone is not enough for a group lesson.
		assert.False(t, Ticket{Category: CategorySmallGroup}.Matches(groupLesson))
		// The right group matches regardless of category.
		assert.True(t, Ticket{Category: CategoryPrivate, TicketGroupID: &groupA}.Matches(groupLesson))
		// The wrong group never matches.
		assert.False(t, Ticket{Category: CategorySmallGroup, TicketGroupID: &groupB}.Matches(groupLesson))
	})
}
