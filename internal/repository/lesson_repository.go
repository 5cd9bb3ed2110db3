// Package repository contains data access logic for the booking domain.
// This file defines persistence for lessons. A Lesson is the unit of
// capacity: bookings count against lessons.max_capacity and the count
// is always recomputed from reservation rows inside the transaction
// that needs it (see ReservationRepo.CountActiveByLessonTx).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
)

// LessonRepo manages persistence for lessons.
type LessonRepo struct {
	db *sql.DB
}

// NewLessonRepo returns a new LessonRepo bound to the given database.
func NewLessonRepo(db *sql.DB) *LessonRepo { return &LessonRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.  Use this method to
// obtain a *sql.DB when you need fine-grained transaction control.
func (r *LessonRepo) DB() *sql.DB { return r.db }

// Create inserts a new lesson and populates the generated ID and
// DB-default timestamps on the given model.
func (r *LessonRepo) Create(ctx context.Context, l *model.Lesson) error {
	const q = `INSERT INTO lessons (title, category, ticket_group_id, starts_at, ends_at, max_capacity)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.Title, l.Category, l.TicketGroupID,
		l.StartsAt.UTC().Format("2006-01-02 15:04:05"), l.EndsAt.UTC().Format("2006-01-02 15:04:05"), l.MaxCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM lessons WHERE id = ?`, l.ID,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
}

// GetByID returns a lesson by id or ErrLessonNotFound.
func (r *LessonRepo) GetByID(ctx context.Context, id uint64) (*model.Lesson, error) {
	const q = `SELECT id, title, category, ticket_group_id, starts_at, ends_at, max_capacity, created_at, updated_at
	           FROM lessons WHERE id = ?`
	return r.scanLesson(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx loads a lesson inside the provided transaction
// with a row lock (SELECT ... FOR UPDATE).  The lesson row acts as the
// serialization point for all capacity decisions: any transaction
// that checks or changes the number of active reservations for a
// lesson must lock this row first, so that two concurrent bookings
// cannot both observe the last free slot.
func (r *LessonRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Lesson, error) {
	const q = `SELECT id, title, category, ticket_group_id, starts_at, ends_at, max_capacity, created_at, updated_at
	           FROM lessons WHERE id = ? FOR UPDATE`
	return r.scanLesson(tx.QueryRowContext(ctx, q, id))
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *LessonRepo) scanLesson(row rowScanner) (*model.Lesson, error) {
	var l model.Lesson
	var groupID sql.NullInt64
	err := row.Scan(&l.ID, &l.Title, &l.Category, &groupID,
		&l.StartsAt, &l.EndsAt, &l.MaxCapacity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	if groupID.Valid {
		gid := uint64(groupID.Int64)
		l.TicketGroupID = &gid
	}
	return &l, nil
}

// Update applies administrative changes to a lesson. Capacity may be
// raised or lowered at any time; lowering below the current number of
// active reservations does not cancel anyone, it only closes the gate
// for new bookings until cancellations bring the count back down.
func (r *LessonRepo) Update(ctx context.Context, l *model.Lesson) error {
	const q = `UPDATE lessons
	           SET title = ?, category = ?, ticket_group_id = ?, starts_at = ?, ends_at = ?, max_capacity = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, l.Title, l.Category, l.TicketGroupID,
		l.StartsAt.UTC().Format("2006-01-02 15:04:05"), l.EndsAt.UTC().Format("2006-01-02 15:04:05"),
		l.MaxCapacity, l.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the lesson does not exist or nothing changed; a
		// follow-up read disambiguates.
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM lessons WHERE id = ?`, l.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLessonNotFound
			}
			return err
		}
	}
	return nil
}

// ListUpcoming returns lessons whose start time is in the future,
// soonest first, with simple limit/offset pagination. It backs the
// public browse endpoint and therefore exposes no reservation data.
func (r *LessonRepo) ListUpcoming(ctx context.Context, limit, offset int) ([]model.Lesson, error) {
	const q = `SELECT id, title, category, ticket_group_id, starts_at, ends_at, max_capacity, created_at, updated_at
	           FROM lessons
	           WHERE starts_at >= ?
	           ORDER BY starts_at ASC, id ASC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, time.Now().UTC().Format("2006-01-02 15:04:05"), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Lesson, 0, limit)
	for rows.Next() {
		var l model.Lesson
		var groupID sql.NullInt64
		if err := rows.Scan(&l.ID, &l.Title, &l.Category, &groupID,
			&l.StartsAt, &l.EndsAt, &l.MaxCapacity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		if groupID.Valid {
			gid := uint64(groupID.Int64)
			l.TicketGroupID = &gid
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
