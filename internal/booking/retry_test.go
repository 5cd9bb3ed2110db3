package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, true},
		{"wrapped deadlock", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1213}), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"duplicate key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false},
		{"cancelled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

// flakyRunner fails with the given error a fixed number of times
// before handing off to the wrapped runner.
type flakyRunner struct {
	inner    Runner
	failures int
	err      error
	calls    int
}

func (r *flakyRunner) InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	r.calls++
	if r.calls <= r.failures {
		return r.err
	}
	return r.inner.InTx(ctx, fn)
}

func TestWithRetryReplaysTransientConflicts(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	flaky := &flakyRunner{
		inner:    &memRunner{s: s},
		failures: 2,
		err:      &mysql.MySQLError{Number: 1213, Message: "Deadlock found"},
	}
	e := NewEngine(flaky, nil, time.Second, 3)

	result, err := e.Book(context.Background(), 7, 1, "ONSITE")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, result.Outcome)
	assert.Equal(t, 3, flaky.calls)
}

func TestWithRetryExhaustionSurfacesConflict(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	flaky := &flakyRunner{
		inner:    &memRunner{s: s},
		failures: 10,
		err:      &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"},
	}
	e := NewEngine(flaky, nil, time.Second, 2)

	_, err := e.Book(context.Background(), 7, 1, "ONSITE")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 3, flaky.calls, "initial attempt plus two retries")
}

func TestWithRetryDoesNotReplayValidationErrors(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	counting := &flakyRunner{inner: &memRunner{s: s}}
	e := NewEngine(counting, nil, time.Second, 5)

	_, err := e.Book(context.Background(), 7, 1, "TICKET")
	require.ErrorIs(t, err, ErrNoTicketAvailable)
	assert.Equal(t, 1, counting.calls, "business failures are final")
}
