package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
	"github.com/iliyamo/studio-lesson-booking/internal/repository"
)

// ErrNoTicketAvailable is returned by ticket-funded booking when the
// member holds no usable ticket for the lesson.  No reservation is
// created in that case.
var ErrNoTicketAvailable = errors.New("no usable ticket for lesson")

// ErrInvalidInput is returned for malformed engine inputs such as an
// unknown reservation type or a zero adjustment delta.
var ErrInvalidInput = errors.New("invalid input")

// Booking outcomes.  OutcomeQueued is a valid success, not an error:
// the lesson was full and the member now waits for a freed slot.
const (
	OutcomeConfirmed = "CONFIRMED"
	OutcomeQueued    = "QUEUED"
)

// BookResult describes what a booking attempt produced: either a
// reservation (OutcomeConfirmed) or a waiting-list entry
// (OutcomeQueued).  Exactly one of the two pointers is set.
type BookResult struct {
	Outcome     string
	Reservation *model.Reservation
	Entry       *model.WaitingListEntry
}

// Notifier dispatches best-effort messages after the engine commits.
// Implementations must never block the caller on delivery problems;
// failures are logged and swallowed, they cannot roll back a
// committed booking.
type Notifier interface {
	ReservationCancelled(ctx context.Context, res model.Reservation)
	MemberPromoted(ctx context.Context, res model.Reservation)
}

// Engine ties the capacity gate, the ticket ledger and the waiting
// list together.  Every operation runs inside one atomic unit of
// work bounded by txTimeout and replayed up to maxRetries times on
// transient conflicts.
type Engine struct {
	runner     Runner
	notifier   Notifier
	txTimeout  time.Duration
	maxRetries int
}

// NewEngine constructs an Engine.  notifier may be nil, which
// disables dispatch entirely (used by tests and degraded startup).
func NewEngine(runner Runner, notifier Notifier, txTimeout time.Duration, maxRetries int) *Engine {
	if runner == nil {
		panic("nil runner passed to NewEngine")
	}
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Engine{runner: runner, notifier: notifier, txTimeout: txTimeout, maxRetries: maxRetries}
}

// Book attempts to reserve a slot on the lesson for the member.
//
// Inside one transaction it locks the lesson row, recomputes the
// active-reservation count, and either inserts a reservation (free
// slot) or appends a waiting-list entry (full lesson, OutcomeQueued).
// Ticket-funded bookings resolve a usable ticket and decrement it in
// the same transaction, so a crash between the two can never leak a
// seat or a ticket use.  Ticket-funded reservations are created PAID
// because the entitlement is prepaid; on-site ones start PENDING.
func (e *Engine) Book(ctx context.Context, memberID, lessonID uint64, resType string) (*BookResult, error) {
	if !model.ValidType(resType) {
		return nil, ErrInvalidInput
	}
	var result *BookResult
	err := e.withRetry(ctx, func(ctx context.Context, uow UnitOfWork) error {
		result = nil // reset in case a prior attempt was replayed
		lesson, err := uow.LessonForUpdate(ctx, lessonID)
		if err != nil {
			return err
		}
		active, err := uow.CountActiveReservations(ctx, lessonID)
		if err != nil {
			return err
		}
		if active >= lesson.MaxCapacity {
			entry, err := uow.Enqueue(ctx, lessonID, memberID)
			if err != nil {
				return err
			}
			result = &BookResult{Outcome: OutcomeQueued, Entry: entry}
			return nil
		}
		res := &model.Reservation{MemberID: memberID, LessonID: lessonID, Type: resType}
		switch resType {
		case model.TypeTicket:
			ticket, err := uow.FindUsableTicket(ctx, memberID, lesson)
			if err != nil {
				return err
			}
			if ticket == nil {
				return ErrNoTicketAvailable
			}
			if err := uow.DecrementTicket(ctx, ticket.ID); err != nil {
				return err
			}
			res.Status = model.StatusPaid
			res.TicketID = &ticket.ID
		case model.TypeOnsite:
			res.Status = model.StatusPending
		}
		if err := uow.InsertReservation(ctx, res); err != nil {
			return err
		}
		result = &BookResult{Outcome: OutcomeConfirmed, Reservation: res}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel sets the reservation to CANCELLED.  Members may only cancel
// their own reservations; admins may cancel any.  Cancelling an
// already-cancelled reservation is a no-op, not an error, and does
// not trigger a second promotion.  Once the cancellation has
// committed the freed slot is offered to the waiting list; promotion
// failures are logged and never surfaced to the cancelling caller.
//
// Consumed tickets are not refunded on cancellation; the
// administrative adjust operation is the manual-correction path.
func (e *Engine) Cancel(ctx context.Context, callerID uint64, callerRole string, reservationID uint64) error {
	var cancelled *model.Reservation
	err := e.withRetry(ctx, func(ctx context.Context, uow UnitOfWork) error {
		cancelled = nil
		res, err := uow.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if callerRole != model.RoleAdmin && res.MemberID != callerID {
			return repository.ErrForbidden
		}
		if res.Status == model.StatusCancelled {
			return nil // idempotent: already terminal, nothing freed
		}
		if err := uow.SetReservationStatus(ctx, res.ID, res.Status, model.StatusCancelled); err != nil {
			return err
		}
		res.Status = model.StatusCancelled
		cancelled = res
		return nil
	})
	if err != nil {
		return err
	}
	if cancelled == nil {
		return nil
	}
	if e.notifier != nil {
		e.notifier.ReservationCancelled(ctx, *cancelled)
	}
	if _, err := e.Promote(ctx, cancelled.LessonID); err != nil {
		log.Printf("booking: promotion after cancel of reservation %d failed: %v", reservationID, err)
	}
	return nil
}

// ConfirmPayment moves a PENDING reservation to PAID.  Confirming a
// reservation that is already PAID is a no-op; confirming a cancelled
// one is a conflict.
func (e *Engine) ConfirmPayment(ctx context.Context, reservationID uint64) error {
	return e.withRetry(ctx, func(ctx context.Context, uow UnitOfWork) error {
		res, err := uow.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Status == model.StatusPaid {
			return nil
		}
		if !model.CanTransition(res.Status, model.StatusPaid) {
			return repository.ErrConflict
		}
		return uow.SetReservationStatus(ctx, res.ID, res.Status, model.StatusPaid)
	})
}

// Promote offers one freed slot to the lesson's waiting list.  It
// walks the FIFO queue in a bounded loop: an entry whose member holds
// no usable ticket is deleted (the offer lapses) and the next entry
// is tried; the first entry with a usable ticket gets a PENDING
// ticket-funded reservation, its ticket decremented and its entry
// removed, all in the same transaction.  At most one promotion
// happens per call even when more capacity is free; callers fill
// multiple slots by calling once per slot.  Returns (nil, nil) when
// the queue is exhausted or the lesson is already full again.
//
// Capacity and ticket validity are re-verified here from fresh,
// locked state: the promotion runs in its own transaction and must
// not trust whatever the triggering cancellation observed.
func (e *Engine) Promote(ctx context.Context, lessonID uint64) (*model.Reservation, error) {
	var promoted *model.Reservation
	err := e.withRetry(ctx, func(ctx context.Context, uow UnitOfWork) error {
		promoted = nil
		lesson, err := uow.LessonForUpdate(ctx, lessonID)
		if err != nil {
			return err
		}
		active, err := uow.CountActiveReservations(ctx, lessonID)
		if err != nil {
			return err
		}
		if active >= lesson.MaxCapacity {
			return nil // someone else took the slot first
		}
		// Each iteration strictly removes one entry, so the loop is
		// bounded by the queue length.
		for {
			entry, err := uow.OldestWaiting(ctx, lessonID)
			if err != nil {
				return err
			}
			if entry == nil {
				return nil
			}
			ticket, err := uow.FindUsableTicket(ctx, entry.MemberID, lesson)
			if err != nil {
				return err
			}
			if ticket == nil {
				if err := uow.DeleteWaiting(ctx, entry.ID); err != nil {
					return err
				}
				continue
			}
			res := &model.Reservation{
				MemberID: entry.MemberID,
				LessonID: lessonID,
				Status:   model.StatusPending,
				Type:     model.TypeTicket,
				TicketID: &ticket.ID,
			}
			if err := uow.InsertReservation(ctx, res); err != nil {
				return err
			}
			if err := uow.DecrementTicket(ctx, ticket.ID); err != nil {
				return err
			}
			if err := uow.DeleteWaiting(ctx, entry.ID); err != nil {
				return err
			}
			promoted = res
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	if promoted != nil && e.notifier != nil {
		e.notifier.MemberPromoted(ctx, *promoted)
	}
	return promoted, nil
}

// AdjustTicket applies an administrative delta to a ticket's
// remaining count, clamped to a minimum of zero.  It is independent
// of the booking flow but uses the same row-locking discipline, so it
// can run concurrently with bookings without corrupting the counter.
func (e *Engine) AdjustTicket(ctx context.Context, ticketID uint64, delta int32) (uint32, error) {
	if delta == 0 {
		return 0, ErrInvalidInput
	}
	var updated uint32
	err := e.withRetry(ctx, func(ctx context.Context, uow UnitOfWork) error {
		n, err := uow.AdjustTicket(ctx, ticketID, delta)
		if err != nil {
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
