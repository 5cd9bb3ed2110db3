package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// memStore is an in-memory storage backend for engine tests.  Its
// runner serializes units under one mutex and restores a snapshot when
// a unit fails, which gives the same observable guarantees the MySQL
// runner gets from row locks and rollback.
type memStore struct {
	mu           sync.Mutex
	now          time.Time
	lessons      map[uint64]model.Lesson
	tickets      map[uint64]model.Ticket
	reservations map[uint64]model.Reservation
	waiting      map[uint64]model.WaitingListEntry
	nextRes      uint64
	nextEntry    uint64
	seq          int64 // drives created_at ordering for the FIFO queue
}

func newMemStore() *memStore {
	return &memStore{
		now:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		lessons:      map[uint64]model.Lesson{},
		tickets:      map[uint64]model.Ticket{},
		reservations: map[uint64]model.Reservation{},
		waiting:      map[uint64]model.WaitingListEntry{},
	}
}

func (s *memStore) addLesson(l model.Lesson) { s.lessons[l.ID] = l }
func (s *memStore) addTicket(t model.Ticket) { s.tickets[t.ID] = t }

func (s *memStore) snapshot() *memStore {
	c := &memStore{
		now:          s.now,
		lessons:      map[uint64]model.Lesson{},
		tickets:      map[uint64]model.Ticket{},
		reservations: map[uint64]model.Reservation{},
		waiting:      map[uint64]model.WaitingListEntry{},
		nextRes:      s.nextRes,
		nextEntry:    s.nextEntry,
		seq:          s.seq,
	}
	for k, v := range s.lessons {
		c.lessons[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.waiting {
		c.waiting[k] = v
	}
	return c
}

func (s *memStore) restore(c *memStore) {
	s.lessons = c.lessons
	s.tickets = c.tickets
	s.reservations = c.reservations
	s.waiting = c.waiting
	s.nextRes = c.nextRes
	s.nextEntry = c.nextEntry
	s.seq = c.seq
}

func (s *memStore) activeCount(lessonID uint64) uint32 {
	var n uint32
	for _, r := range s.reservations {
		if r.LessonID == lessonID && model.CountsAgainstCapacity(r.Status) {
			n++
		}
	}
	return n
}

// memRunner executes each unit under the store mutex.
type memRunner struct {
	s *memStore
}

func (r *memRunner) InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := r.s.snapshot()
	if err := fn(ctx, &memUnit{s: r.s}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

type memUnit struct {
	s *memStore
}

func (u *memUnit) LessonForUpdate(ctx context.Context, lessonID uint64) (*model.Lesson, error) {
	l, ok := u.s.lessons[lessonID]
	if !ok {
		return nil, repository.ErrLessonNotFound
	}
	return &l, nil
}

func (u *memUnit) CountActiveReservations(ctx context.Context, lessonID uint64) (uint32, error) {
	return u.s.activeCount(lessonID), nil
}

func (u *memUnit) FindUsableTicket(ctx context.Context, memberID uint64, lesson *model.Lesson) (*model.Ticket, error) {
	var candidates []model.Ticket
	for _, t := range u.s.tickets {
		if t.MemberID == memberID && t.Matches(*lesson) && t.Usable(u.s.now) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].ExpiresAt.Equal(candidates[j].ExpiresAt) {
			return candidates[i].ExpiresAt.Before(candidates[j].ExpiresAt)
		}
		return candidates[i].ID < candidates[j].ID
	})
	best := candidates[0]
	return &best, nil
}

func (u *memUnit) DecrementTicket(ctx context.Context, ticketID uint64) error {
	t, ok := u.s.tickets[ticketID]
	if !ok {
		return repository.ErrTicketNotFound
	}
	if t.RemainingCount == 0 {
		return repository.ErrInsufficientBalance
	}
	t.RemainingCount--
	u.s.tickets[ticketID] = t
	return nil
}

func (u *memUnit) AdjustTicket(ctx context.Context, ticketID uint64, delta int32) (uint32, error) {
	t, ok := u.s.tickets[ticketID]
	if !ok {
		return 0, repository.ErrTicketNotFound
	}
	n := int64(t.RemainingCount) + int64(delta)
	if n < 0 {
		n = 0
	}
	t.RemainingCount = uint32(n)
	u.s.tickets[ticketID] = t
	return t.RemainingCount, nil
}

func (u *memUnit) InsertReservation(ctx context.Context, res *model.Reservation) error {
	u.s.nextRes++
	res.ID = u.s.nextRes
	res.CreatedAt = u.s.now
	res.UpdatedAt = u.s.now
	u.s.reservations[res.ID] = *res
	return nil
}

func (u *memUnit) ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := u.s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (u *memUnit) SetReservationStatus(ctx context.Context, id uint64, from, to string) error {
	r, ok := u.s.reservations[id]
	if !ok || r.Status != from {
		return repository.ErrConflict
	}
	r.Status = to
	u.s.reservations[id] = r
	return nil
}

func (u *memUnit) Enqueue(ctx context.Context, lessonID, memberID uint64) (*model.WaitingListEntry, error) {
	u.s.nextEntry++
	u.s.seq++
	e := model.WaitingListEntry{
		ID:        u.s.nextEntry,
		LessonID:  lessonID,
		MemberID:  memberID,
		CreatedAt: u.s.now.Add(time.Duration(u.s.seq) * time.Millisecond),
	}
	u.s.waiting[e.ID] = e
	return &e, nil
}

func (u *memUnit) OldestWaiting(ctx context.Context, lessonID uint64) (*model.WaitingListEntry, error) {
	var entries []model.WaitingListEntry
	for _, e := range u.s.waiting {
		if e.LessonID == lessonID {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	head := entries[0]
	return &head, nil
}

func (u *memUnit) DeleteWaiting(ctx context.Context, entryID uint64) error {
	delete(u.s.waiting, entryID)
	return nil
}

// recorderNotifier records dispatched events for assertions.
type recorderNotifier struct {
	mu        sync.Mutex
	cancelled []model.Reservation
	promoted  []model.Reservation
}

func (n *recorderNotifier) ReservationCancelled(ctx context.Context, res model.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, res)
}

func (n *recorderNotifier) MemberPromoted(ctx context.Context, res model.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.promoted = append(n.promoted, res)
}

func newTestEngine(s *memStore) *Engine {
	return NewEngine(&memRunner{s: s}, nil, time.Second, 0)
}

func lessonFixture(id uint64, capacity uint32) model.Lesson {
	return model.Lesson{
		ID:          id,
		Title:       "Evening Pilates",
		Category:    model.CategorySmallGroup,
		StartsAt:    time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC),
		MaxCapacity: capacity,
	}
}

func ticketFixture(id, memberID uint64, remaining uint32, expiresAt time.Time) model.Ticket {
	return model.Ticket{
		ID:             id,
		MemberID:       memberID,
		Category:       model.CategorySmallGroup,
		RemainingCount: remaining,
		ExpiresAt:      expiresAt,
	}
}

func TestBookTicketFundedConfirmed(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	s.addTicket(ticketFixture(10, 7, 3, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)

	result, err := e.Book(context.Background(), 7, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, result.Outcome)
	require.NotNil(t, result.Reservation)
	assert.Nil(t, result.Entry)

	res := result.Reservation
	assert.Equal(t, model.StatusPaid, res.Status)
	assert.Equal(t, model.TypeTicket, res.Type)
	require.NotNil(t, res.TicketID)
	assert.Equal(t, uint64(10), *res.TicketID)
	assert.Equal(t, uint32(2), s.tickets[10].RemainingCount)
}

func TestBookOnsiteStartsPending(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	e := newTestEngine(s)

	result, err := e.Book(context.Background(), 7, 1, model.TypeOnsite)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, result.Outcome)
	assert.Equal(t, model.StatusPending, result.Reservation.Status)
	assert.Nil(t, result.Reservation.TicketID)
}

func TestBookRejectsUnknownType(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	e := newTestEngine(s)

	_, err := e.Book(context.Background(), 7, 1, "GIFT")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBookNoUsableTicket(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	// Expired ticket and exhausted ticket: neither may fund the booking.
	s.addTicket(ticketFixture(10, 7, 3, s.now.Add(-time.Hour)))
	s.addTicket(ticketFixture(11, 7, 0, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)

	_, err := e.Book(context.Background(), 7, 1, model.TypeTicket)
	require.ErrorIs(t, err, ErrNoTicketAvailable)

	// No reservation leaked and no balance was touched.
	assert.Empty(t, s.reservations)
	assert.Equal(t, uint32(3), s.tickets[10].RemainingCount)
	assert.Equal(t, uint32(0), s.tickets[11].RemainingCount)
}

func TestBookFullLessonQueues(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	s.addTicket(ticketFixture(10, 7, 3, s.now.Add(48*time.Hour)))
	s.addTicket(ticketFixture(11, 8, 3, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)

	first, err := e.Book(context.Background(), 7, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, first.Outcome)

	second, err := e.Book(context.Background(), 8, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeQueued, second.Outcome)
	require.NotNil(t, second.Entry)
	assert.Equal(t, uint64(8), second.Entry.MemberID)

	// Queueing must not consume the waiting member's ticket.
	assert.Equal(t, uint32(3), s.tickets[11].RemainingCount)
	assert.Equal(t, uint32(1), s.activeCount(1))
}

func TestConcurrentBookingNeverOversells(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	e := newTestEngine(s)

	const members = 8
	var wg sync.WaitGroup
	outcomes := make([]string, members)
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := e.Book(context.Background(), uint64(100+i), 1, model.TypeOnsite)
			if assert.NoError(t, err) {
				outcomes[i] = result.Outcome
			}
		}(i)
	}
	wg.Wait()

	confirmed := 0
	queued := 0
	for _, o := range outcomes {
		switch o {
		case OutcomeConfirmed:
			confirmed++
		case OutcomeQueued:
			queued++
		}
	}
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, members-1, queued)
	assert.Equal(t, uint32(1), s.activeCount(1))
	assert.Len(t, s.waiting, members-1)
}

func TestConcurrentDecrementSingleUseTicket(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 10))
	s.addLesson(lessonFixture(2, 10))
	s.addTicket(ticketFixture(10, 7, 1, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, lessonID := range []uint64{1, 2} {
		wg.Add(1)
		go func(i int, lessonID uint64) {
			defer wg.Done()
			_, errs[i] = e.Book(context.Background(), 7, lessonID, model.TypeTicket)
		}(i, lessonID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrNoTicketAvailable)
		}
	}
	assert.Equal(t, 1, succeeded, "a single-use ticket funds exactly one booking")
	assert.Equal(t, uint32(0), s.tickets[10].RemainingCount)
}

func TestCancelPromotesOldestEligible(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	s.addTicket(ticketFixture(10, 1, 2, s.now.Add(48*time.Hour)))
	s.addTicket(ticketFixture(11, 3, 2, s.now.Add(48*time.Hour)))
	notifier := &recorderNotifier{}
	e := NewEngine(&memRunner{s: s}, notifier, time.Second, 0)
	ctx := context.Background()

	booked, err := e.Book(ctx, 1, 1, model.TypeTicket)
	require.NoError(t, err)
	// Member 2 holds no ticket, member 3 does; both queue up in order.
	q1, err := e.Book(ctx, 2, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeQueued, q1.Outcome)
	q2, err := e.Book(ctx, 3, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeQueued, q2.Outcome)

	require.NoError(t, e.Cancel(ctx, 1, model.RoleMember, booked.Reservation.ID))

	// Member 2's offer lapsed (no usable ticket), member 3 got the slot.
	assert.Empty(t, s.waiting)
	assert.Equal(t, uint32(1), s.activeCount(1))

	var promoted *model.Reservation
	for _, r := range s.reservations {
		if r.MemberID == 3 {
			cp := r
			promoted = &cp
		}
	}
	require.NotNil(t, promoted)
	assert.Equal(t, model.StatusPending, promoted.Status)
	assert.Equal(t, model.TypeTicket, promoted.Type)
	assert.Equal(t, uint32(1), s.tickets[11].RemainingCount)

	require.Len(t, notifier.cancelled, 1)
	require.Len(t, notifier.promoted, 1)
	assert.Equal(t, uint64(3), notifier.promoted[0].MemberID)
}

func TestCancelSkipsUnfundedAndLeavesRestQueued(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	s.addTicket(ticketFixture(10, 1, 2, s.now.Add(48*time.Hour)))
	// Members 3 and 4 both hold usable tickets; member 2 holds none.
	s.addTicket(ticketFixture(11, 3, 2, s.now.Add(48*time.Hour)))
	s.addTicket(ticketFixture(12, 4, 2, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)
	ctx := context.Background()

	booked, err := e.Book(ctx, 1, 1, model.TypeTicket)
	require.NoError(t, err)
	for _, memberID := range []uint64{2, 3, 4} {
		q, err := e.Book(ctx, memberID, 1, model.TypeTicket)
		require.NoError(t, err)
		require.Equal(t, OutcomeQueued, q.Outcome)
	}

	require.NoError(t, e.Cancel(ctx, 1, model.RoleMember, booked.Reservation.ID))

	// One freed slot: member 2's offer lapsed, member 3 got the slot,
	// and member 4 must still be queued for the next one.
	assert.Equal(t, uint32(1), s.activeCount(1))
	require.Len(t, s.waiting, 1)
	for _, entry := range s.waiting {
		assert.Equal(t, uint64(4), entry.MemberID)
	}
	assert.Equal(t, uint32(1), s.tickets[11].RemainingCount)
	assert.Equal(t, uint32(2), s.tickets[12].RemainingCount, "a queued member's ticket stays untouched")

	for _, r := range s.reservations {
		assert.NotEqual(t, uint64(4), r.MemberID)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	s.addTicket(ticketFixture(10, 1, 2, s.now.Add(48*time.Hour)))
	s.addTicket(ticketFixture(11, 2, 2, s.now.Add(48*time.Hour)))
	s.addTicket(ticketFixture(12, 3, 2, s.now.Add(48*time.Hour)))
	notifier := &recorderNotifier{}
	e := NewEngine(&memRunner{s: s}, notifier, time.Second, 0)
	ctx := context.Background()

	booked, err := e.Book(ctx, 1, 1, model.TypeTicket)
	require.NoError(t, err)
	_, err = e.Book(ctx, 2, 1, model.TypeTicket)
	require.NoError(t, err)
	_, err = e.Book(ctx, 3, 1, model.TypeTicket)
	require.NoError(t, err)

	require.NoError(t, e.Cancel(ctx, 1, model.RoleMember, booked.Reservation.ID))
	// Member 2 was promoted for the freed slot; member 3 still waits.
	require.Len(t, s.waiting, 1)

	// A repeated cancel succeeds but must not promote member 3 too.
	require.NoError(t, e.Cancel(ctx, 1, model.RoleMember, booked.Reservation.ID))
	assert.Len(t, s.waiting, 1)
	assert.Equal(t, uint32(1), s.activeCount(1))
	assert.Len(t, notifier.cancelled, 1)
	assert.Len(t, notifier.promoted, 1)
}

func TestCancelAuthorization(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	e := newTestEngine(s)
	ctx := context.Background()

	booked, err := e.Book(ctx, 1, 1, model.TypeOnsite)
	require.NoError(t, err)
	id := booked.Reservation.ID

	// Another member may not cancel it.
	err = e.Cancel(ctx, 2, model.RoleMember, id)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Equal(t, model.StatusPending, s.reservations[id].Status)

	// An admin may.
	require.NoError(t, e.Cancel(ctx, 99, model.RoleAdmin, id))
	assert.Equal(t, model.StatusCancelled, s.reservations[id].Status)
}

func TestCancelUnknownReservation(t *testing.T) {
	s := newMemStore()
	e := newTestEngine(s)

	err := e.Cancel(context.Background(), 1, model.RoleMember, 42)
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestConfirmPayment(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	e := newTestEngine(s)
	ctx := context.Background()

	booked, err := e.Book(ctx, 1, 1, model.TypeOnsite)
	require.NoError(t, err)
	id := booked.Reservation.ID

	require.NoError(t, e.ConfirmPayment(ctx, id))
	assert.Equal(t, model.StatusPaid, s.reservations[id].Status)

	// Confirming again is a no-op.
	require.NoError(t, e.ConfirmPayment(ctx, id))
	assert.Equal(t, model.StatusPaid, s.reservations[id].Status)

	// A cancelled reservation cannot be confirmed.
	require.NoError(t, e.Cancel(ctx, 1, model.RoleMember, id))
	err = e.ConfirmPayment(ctx, id)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestPromoteOneSlotPerCall(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 2))
	s.addTicket(ticketFixture(10, 1, 1, s.now.Add(48*time.Hour)))
	s.addTicket(ticketFixture(11, 2, 1, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)
	ctx := context.Background()

	// Two members waiting, two slots free.
	err := (&memRunner{s: s}).InTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if _, err := uow.Enqueue(ctx, 1, 1); err != nil {
			return err
		}
		_, err := uow.Enqueue(ctx, 1, 2)
		return err
	})
	require.NoError(t, err)

	first, err := e.Promote(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), first.MemberID)
	assert.Len(t, s.waiting, 1, "one promotion per call")

	second, err := e.Promote(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, uint64(2), second.MemberID)
	assert.Empty(t, s.waiting)

	third, err := e.Promote(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, third, "exhausted queue promotes nobody")
}

func TestPromoteFullLessonIsNoop(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	s.addTicket(ticketFixture(10, 2, 1, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)
	ctx := context.Background()

	_, err := e.Book(ctx, 1, 1, model.TypeOnsite)
	require.NoError(t, err)
	queued, err := e.Book(ctx, 2, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeQueued, queued.Outcome)

	promoted, err := e.Promote(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, promoted)
	// The entry stays queued for the next freed slot.
	assert.Len(t, s.waiting, 1)
}

func TestTicketGroupTakesPrecedence(t *testing.T) {
	s := newMemStore()
	group := uint64(5)
	lesson := lessonFixture(1, 5)
	lesson.TicketGroupID = &group
	s.addLesson(lesson)

	// Category matches but the lesson demands the group: not usable.
	s.addTicket(ticketFixture(10, 7, 3, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)

	_, err := e.Book(context.Background(), 7, 1, model.TypeTicket)
	require.ErrorIs(t, err, ErrNoTicketAvailable)

	// A group-bound ticket funds it even with a different category.
	groupTicket := model.Ticket{
		ID:             11,
		MemberID:       7,
		Category:       model.CategoryPrivate,
		TicketGroupID:  &group,
		RemainingCount: 1,
		ExpiresAt:      s.now.Add(48 * time.Hour),
	}
	s.addTicket(groupTicket)

	result, err := e.Book(context.Background(), 7, 1, model.TypeTicket)
	require.NoError(t, err)
	require.NotNil(t, result.Reservation.TicketID)
	assert.Equal(t, uint64(11), *result.Reservation.TicketID)
}

func TestGroupBoundTicketRejectedForGroupLessLesson(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))

	// The member's only ticket has the right category but is bound to
	// a group, and the lesson demands no group.  The SQL lookup filters
	// such tickets out (ticket_group_id IS NULL); the in-memory ledger
	// must agree.
	group := uint64(5)
	bound := ticketFixture(10, 7, 3, s.now.Add(48*time.Hour))
	bound.TicketGroupID = &group
	s.addTicket(bound)
	e := newTestEngine(s)

	_, err := e.Book(context.Background(), 7, 1, model.TypeTicket)
	require.ErrorIs(t, err, ErrNoTicketAvailable)
	assert.Empty(t, s.reservations)
	assert.Equal(t, uint32(3), s.tickets[10].RemainingCount)
}

func TestEarliestExpiringTicketConsumedFirst(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 5))
	s.addTicket(ticketFixture(10, 7, 3, s.now.Add(72*time.Hour)))
	s.addTicket(ticketFixture(11, 7, 3, s.now.Add(24*time.Hour)))
	e := newTestEngine(s)

	result, err := e.Book(context.Background(), 7, 1, model.TypeTicket)
	require.NoError(t, err)
	require.NotNil(t, result.Reservation.TicketID)
	assert.Equal(t, uint64(11), *result.Reservation.TicketID)
	assert.Equal(t, uint32(2), s.tickets[11].RemainingCount)
	assert.Equal(t, uint32(3), s.tickets[10].RemainingCount)
}

func TestCancelWithUnfundedWaiterAbandonsOffer(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	s.addTicket(ticketFixture(10, 1, 2, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)
	ctx := context.Background()

	booked, err := e.Book(ctx, 1, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, booked.Outcome)
	assert.Equal(t, uint32(1), s.tickets[10].RemainingCount)

	// Member 2 holds no ticket at all; the lesson is full so they queue.
	queued, err := e.Book(ctx, 2, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeQueued, queued.Outcome)

	require.NoError(t, e.Cancel(ctx, 1, model.RoleMember, booked.Reservation.ID))

	// The offer lapsed: queue empty, no reservation for member 2, the
	// freed slot stays open.
	assert.Empty(t, s.waiting)
	assert.Equal(t, uint32(0), s.activeCount(1))
	for _, r := range s.reservations {
		assert.NotEqual(t, uint64(2), r.MemberID)
	}
}

func TestCancelWithFundedWaiterFillsTheSlot(t *testing.T) {
	s := newMemStore()
	s.addLesson(lessonFixture(1, 1))
	s.addTicket(ticketFixture(10, 1, 2, s.now.Add(48*time.Hour)))
	s.addTicket(ticketFixture(11, 2, 1, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)
	ctx := context.Background()

	booked, err := e.Book(ctx, 1, 1, model.TypeTicket)
	require.NoError(t, err)
	queued, err := e.Book(ctx, 2, 1, model.TypeTicket)
	require.NoError(t, err)
	require.Equal(t, OutcomeQueued, queued.Outcome)

	require.NoError(t, e.Cancel(ctx, 1, model.RoleMember, booked.Reservation.ID))

	// Member 2 was promoted: PENDING reservation, ticket consumed,
	// queue empty, lesson full again.
	assert.Empty(t, s.waiting)
	assert.Equal(t, uint32(1), s.activeCount(1))
	assert.Equal(t, uint32(0), s.tickets[11].RemainingCount)

	var promoted *model.Reservation
	for _, r := range s.reservations {
		if r.MemberID == 2 {
			cp := r
			promoted = &cp
		}
	}
	require.NotNil(t, promoted)
	assert.Equal(t, model.StatusPending, promoted.Status)
	assert.Equal(t, model.TypeTicket, promoted.Type)
}

func TestAdjustTicketClampsAtZero(t *testing.T) {
	s := newMemStore()
	s.addTicket(ticketFixture(10, 7, 2, s.now.Add(48*time.Hour)))
	e := newTestEngine(s)
	ctx := context.Background()

	_, err := e.AdjustTicket(ctx, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	balance, err := e.AdjustTicket(ctx, 10, -5)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), balance)

	balance, err = e.AdjustTicket(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), balance)

	_, err = e.AdjustTicket(ctx, 404, 1)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}
