package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
)

// TicketRepo provides data access for prepaid tickets.  The two hot
// paths, FindUsableForLessonTx and DecrementTx, always run inside the
// booking or promotion transaction so that the check-then-write on
// remaining_count is atomic relative to concurrent bookings.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Create issues a ticket to a member and populates the generated ID.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets (member_id, category, ticket_group_id, remaining_count, expires_at)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.MemberID, t.Category, t.TicketGroupID,
		t.RemainingCount, t.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM tickets WHERE id = ?`, t.ID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a ticket by id or ErrTicketNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = `SELECT id, member_id, category, ticket_group_id, remaining_count, expires_at, created_at, updated_at
	           FROM tickets WHERE id = ?`
	return r.scanTicket(r.db.QueryRowContext(ctx, q, id))
}

// FindUsableForLessonTx selects a ticket owned by the member that can
// pay for the given lesson: a ticket bound to the lesson's ticket
// group when one is configured (group match takes precedence over raw
// category match), otherwise a ticket of the lesson's category, with
// remaining_count > 0 and expires_at in the future.  Among qualifying
// tickets the soonest-expiring one wins, id ascending as tie-break,
// so soon-to-expire entitlements are consumed first and the choice is
// deterministic.  The selected row is locked FOR UPDATE so the
// subsequent decrement cannot race a concurrent booking.  Returns
// (nil, nil) when the member holds no usable ticket.
func (r *TicketRepo) FindUsableForLessonTx(ctx context.Context, tx *sql.Tx, memberID uint64, lesson *model.Lesson) (*model.Ticket, error) {
	var row *sql.Row
	if lesson.TicketGroupID != nil {
		const q = `SELECT id, member_id, category, ticket_group_id, remaining_count, expires_at, created_at, updated_at
		           FROM tickets
		           WHERE member_id = ? AND ticket_group_id = ? AND remaining_count > 0 AND expires_at > UTC_TIMESTAMP()
		           ORDER BY expires_at ASC, id ASC
		           LIMIT 1 FOR UPDATE`
		row = tx.QueryRowContext(ctx, q, memberID, *lesson.TicketGroupID)
	} else {
		const q = `SELECT id, member_id, category, ticket_group_id, remaining_count, expires_at, created_at, updated_at
		           FROM tickets
		           WHERE member_id = ? AND ticket_group_id IS NULL AND category = ? AND remaining_count > 0 AND expires_at > UTC_TIMESTAMP()
		           ORDER BY expires_at ASC, id ASC
		           LIMIT 1 FOR UPDATE`
		row = tx.QueryRowContext(ctx, q, memberID, lesson.Category)
	}
	t, err := r.scanTicket(row)
	if errors.Is(err, ErrTicketNotFound) {
		return nil, nil
	}
	return t, err
}

// DecrementTx reduces remaining_count by exactly one.  The UPDATE is
// conditional on remaining_count > 0, so a race against another
// decrement can never drive the counter negative; when no row was
// changed the ticket either vanished or had no uses left, and the
// follow-up read tells the two cases apart.
func (r *TicketRepo) DecrementTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET remaining_count = remaining_count - 1 WHERE id = ? AND remaining_count > 0`,
		ticketID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var id uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tickets WHERE id = ?`, ticketID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTicketNotFound
			}
			return err
		}
		return ErrInsufficientBalance
	}
	return nil
}

// AdjustTx applies a signed administrative delta to remaining_count,
// clamping the result to a minimum of zero via GREATEST.  It locks
// the row first so the adjustment composes safely with concurrent
// booking decrements, and returns the resulting count.
func (r *TicketRepo) AdjustTx(ctx context.Context, tx *sql.Tx, ticketID uint64, delta int32) (uint32, error) {
	var current uint32
	err := tx.QueryRowContext(ctx,
		`SELECT remaining_count FROM tickets WHERE id = ? FOR UPDATE`, ticketID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTicketNotFound
		}
		return 0, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE tickets SET remaining_count = GREATEST(CAST(remaining_count AS SIGNED) + ?, 0) WHERE id = ?`,
		delta, ticketID)
	if err != nil {
		return 0, err
	}
	var updated uint32
	if err := tx.QueryRowContext(ctx, `SELECT remaining_count FROM tickets WHERE id = ?`, ticketID).Scan(&updated); err != nil {
		return 0, err
	}
	return updated, nil
}

// ListByMember returns all tickets owned by a member, soonest-expiring
// first. Expired tickets are included so members can see history; the
// handler exposes a usable flag computed from expiry and balance.
func (r *TicketRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Ticket, error) {
	const q = `SELECT id, member_id, category, ticket_group_id, remaining_count, expires_at, created_at, updated_at
	           FROM tickets WHERE member_id = ?
	           ORDER BY expires_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var groupID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.MemberID, &t.Category, &groupID,
			&t.RemainingCount, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if groupID.Valid {
			gid := uint64(groupID.Int64)
			t.TicketGroupID = &gid
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TicketRepo) scanTicket(row rowScanner) (*model.Ticket, error) {
	var t model.Ticket
	var groupID sql.NullInt64
	err := row.Scan(&t.ID, &t.MemberID, &t.Category, &groupID,
		&t.RemainingCount, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if groupID.Valid {
		gid := uint64(groupID.Int64)
		t.TicketGroupID = &gid
	}
	return &t, nil
}
