// Package booking implements the reservation consistency engine: the
// capacity gate, the ticket ledger operations, the reservation state
// machine and the waiting-list promotion scheduler.  Everything the
// engine does runs inside a single atomic unit of work; the UnitOfWork
// interface below is the seam between the engine's decisions and the
// storage that enforces them.
package booking

import (
	"context"
	"database/sql"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// UnitOfWork exposes the row-level operations the engine composes
// inside one transaction.  Implementations must guarantee that reads
// performed through a unit observe no writes from concurrent units
// until commit (the production implementation leans on MySQL row
// locks; the in-memory test implementation serializes units).
type UnitOfWork interface {
	// LessonForUpdate loads a lesson and locks it for the duration of
	// the unit.  The lesson row is the serialization point for all
	// capacity decisions on that lesson.
	LessonForUpdate(ctx context.Context, lessonID uint64) (*model.Lesson, error)
	// CountActiveReservations counts reservations for the lesson whose
	// status is not CANCELLED.
	CountActiveReservations(ctx context.Context, lessonID uint64) (uint32, error)
	// FindUsableTicket selects the member's best usable ticket for the
	// lesson (group match first, then category; earliest expiry wins).
	// Returns (nil, nil) when the member holds none.
	FindUsableTicket(ctx context.Context, memberID uint64, lesson *model.Lesson) (*model.Ticket, error)
	// DecrementTicket consumes one use; repository.ErrInsufficientBalance
	// when the counter is already zero.
	DecrementTicket(ctx context.Context, ticketID uint64) error
	// AdjustTicket applies a signed delta clamped at zero and returns
	// the resulting count.
	AdjustTicket(ctx context.Context, ticketID uint64, delta int32) (uint32, error)
	// InsertReservation persists a new reservation and fills its ID.
	InsertReservation(ctx context.Context, res *model.Reservation) error
	// ReservationForUpdate loads a reservation with a row lock.
	ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error)
	// SetReservationStatus transitions a reservation conditionally on
	// its current status; repository.ErrConflict when the row moved.
	SetReservationStatus(ctx context.Context, id uint64, from, to string) error
	// Enqueue appends the member to the lesson's waiting list.
	Enqueue(ctx context.Context, lessonID, memberID uint64) (*model.WaitingListEntry, error)
	// OldestWaiting returns the head of the lesson's FIFO queue locked
	// for the unit, or (nil, nil) when the queue is empty.
	OldestWaiting(ctx context.Context, lessonID uint64) (*model.WaitingListEntry, error)
	// DeleteWaiting removes a queue entry (promotion or abandonment).
	DeleteWaiting(ctx context.Context, entryID uint64) error
}

// Runner executes a function inside one atomic unit of work.  The
// unit commits when fn returns nil and rolls back otherwise, so a
// failing promotion or booking leaves no partial writes behind.  The
// context handed to fn carries the unit's deadline; all reads and
// writes through the unit must use it.
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// SQLRunner is the production Runner: each unit is a database
// transaction over the repository layer.  The handle is acquired per
// unit and released on every exit path; nothing engine-side keeps a
// process-wide connection.
type SQLRunner struct {
	db           *sql.DB
	lessons      *repository.LessonRepo
	tickets      *repository.TicketRepo
	reservations *repository.ReservationRepo
	waitlist     *repository.WaitingListRepo
}

// NewSQLRunner builds a SQLRunner over the shared pool and repositories.
func NewSQLRunner(db *sql.DB, lessons *repository.LessonRepo, tickets *repository.TicketRepo,
	reservations *repository.ReservationRepo, waitlist *repository.WaitingListRepo) *SQLRunner {
	if db == nil || lessons == nil || tickets == nil || reservations == nil || waitlist == nil {
		panic("nil dependency passed to NewSQLRunner")
	}
	return &SQLRunner{db: db, lessons: lessons, tickets: tickets, reservations: reservations, waitlist: waitlist}
}

// InTx begins a transaction, runs fn over a transaction-scoped unit
// and commits on success.  Rollback errors are ignored: the driver
// rolls back aborted transactions regardless.
func (r *SQLRunner) InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &sqlUnit{tx: tx, r: r}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlUnit adapts the repositories' ...Tx methods to the UnitOfWork
// interface for a single transaction.
type sqlUnit struct {
	tx *sql.Tx
	r  *SQLRunner
}

func (u *sqlUnit) LessonForUpdate(ctx context.Context, lessonID uint64) (*model.Lesson, error) {
	return u.r.lessons.GetByIDForUpdateTx(ctx, u.tx, lessonID)
}

func (u *sqlUnit) CountActiveReservations(ctx context.Context, lessonID uint64) (uint32, error) {
	return u.r.reservations.CountActiveByLessonTx(ctx, u.tx, lessonID)
}

func (u *sqlUnit) FindUsableTicket(ctx context.Context, memberID uint64, lesson *model.Lesson) (*model.Ticket, error) {
	return u.r.tickets.FindUsableForLessonTx(ctx, u.tx, memberID, lesson)
}

func (u *sqlUnit) DecrementTicket(ctx context.Context, ticketID uint64) error {
	return u.r.tickets.DecrementTx(ctx, u.tx, ticketID)
}

func (u *sqlUnit) AdjustTicket(ctx context.Context, ticketID uint64, delta int32) (uint32, error) {
	return u.r.tickets.AdjustTx(ctx, u.tx, ticketID, delta)
}

func (u *sqlUnit) InsertReservation(ctx context.Context, res *model.Reservation) error {
	return u.r.reservations.CreateTx(ctx, u.tx, res)
}

func (u *sqlUnit) ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	return u.r.reservations.GetByIDForUpdateTx(ctx, u.tx, id)
}

func (u *sqlUnit) SetReservationStatus(ctx context.Context, id uint64, from, to string) error {
	return u.r.reservations.UpdateStatusTx(ctx, u.tx, id, from, to)
}

func (u *sqlUnit) Enqueue(ctx context.Context, lessonID, memberID uint64) (*model.WaitingListEntry, error) {
	return u.r.waitlist.EnqueueTx(ctx, u.tx, lessonID, memberID)
}

func (u *sqlUnit) OldestWaiting(ctx context.Context, lessonID uint64) (*model.WaitingListEntry, error) {
	return u.r.waitlist.OldestByLessonTx(ctx, u.tx, lessonID)
}

func (u *sqlUnit) DeleteWaiting(ctx context.Context, entryID uint64) error {
	return u.r.waitlist.DeleteTx(ctx, u.tx, entryID)
}
