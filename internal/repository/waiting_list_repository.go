package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
)

// WaitingListRepo provides persistence for per-lesson FIFO waiting
// lists.  Ordering is by created_at with id as tie-break, which keeps
// the queue strict even when two members enqueue within the same
// clock tick.
type WaitingListRepo struct {
	db *sql.DB
}

// NewWaitingListRepo returns a new WaitingListRepo bound to the provided database.
func NewWaitingListRepo(db *sql.DB) *WaitingListRepo { return &WaitingListRepo{db: db} }

// EnqueueTx appends the member to the lesson's waiting list within
// the provided transaction.  Called by the booking flow when the
// capacity gate reports the lesson full.
func (r *WaitingListRepo) EnqueueTx(ctx context.Context, tx *sql.Tx, lessonID, memberID uint64) (*model.WaitingListEntry, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO waiting_list (lesson_id, member_id) VALUES (?, ?)`,
		lessonID, memberID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	e := &model.WaitingListEntry{ID: uint64(id), LessonID: lessonID, MemberID: memberID}
	err = tx.QueryRowContext(ctx,
		`SELECT created_at FROM waiting_list WHERE id = ?`, e.ID,
	).Scan(&e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// OldestByLessonTx returns the earliest unresolved entry for the
// lesson, locked FOR UPDATE so a concurrent promotion run cannot pick
// the same entry.  Returns (nil, nil) when the queue is empty.
func (r *WaitingListRepo) OldestByLessonTx(ctx context.Context, tx *sql.Tx, lessonID uint64) (*model.WaitingListEntry, error) {
	var e model.WaitingListEntry
	err := tx.QueryRowContext(ctx,
		`SELECT id, lesson_id, member_id, created_at
		 FROM waiting_list WHERE lesson_id = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1 FOR UPDATE`,
		lessonID).Scan(&e.ID, &e.LessonID, &e.MemberID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// DeleteTx removes an entry, either because it was promoted or
// because the member held no usable ticket and the slot offer lapsed.
func (r *WaitingListRepo) DeleteTx(ctx context.Context, tx *sql.Tx, entryID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM waiting_list WHERE id = ?`, entryID)
	return err
}

// ListByLesson returns the queue for a lesson in FIFO order, for
// admin inspection.
func (r *WaitingListRepo) ListByLesson(ctx context.Context, lessonID uint64) ([]model.WaitingListEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lesson_id, member_id, created_at
		 FROM waiting_list WHERE lesson_id = ?
		 ORDER BY created_at ASC, id ASC`,
		lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WaitingListEntry, 0)
	for rows.Next() {
		var e model.WaitingListEntry
		if err := rows.Scan(&e.ID, &e.LessonID, &e.MemberID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListByMember returns the member's own waiting-list entries across
// lessons, oldest first.
func (r *WaitingListRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.WaitingListEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lesson_id, member_id, created_at
		 FROM waiting_list WHERE member_id = ?
		 ORDER BY created_at ASC, id ASC`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WaitingListEntry, 0)
	for rows.Next() {
		var e model.WaitingListEntry
		if err := rows.Scan(&e.ID, &e.LessonID, &e.MemberID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
