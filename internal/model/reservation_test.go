package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusPending, StatusPending, false},
		{"UNKNOWN", StatusPaid, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCountsAgainstCapacity(t *testing.T) {
	assert.True(t, CountsAgainstCapacity(StatusPending))
	assert.True(t, CountsAgainstCapacity(StatusPaid))
	assert.False(t, CountsAgainstCapacity(StatusCancelled))
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType(TypeTicket))
	assert.True(t, ValidType(TypeOnsite))
	assert.False(t, ValidType("ticket"))
	assert.False(t, ValidType(""))
	assert.False(t, ValidType("GIFT"))
}
