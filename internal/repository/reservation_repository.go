package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
)

// ReservationRepo provides persistence for reservations.  A
// reservation links one member to one lesson and is never physically
// deleted: cancellation flips the status so booking history survives.
// All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DateRange is an optional half-open filter on a timestamp column.
// A nil From or To means that bound is absent.  It replaces the
// loosely typed filter maps sometimes used for ad-hoc date queries:
// presence is explicit, and the SQL fragment is built in one place.
type DateRange struct {
	From *time.Time // include rows at or after this instant (nil = unbounded)
	To   *time.Time // include rows strictly before this instant (nil = unbounded)
}

// conditions returns the WHERE fragments and args for the range over
// the given column.  Both slices are empty when the range is absent.
func (dr DateRange) conditions(col string) ([]string, []any) {
	var conds []string
	var args []any
	if dr.From != nil {
		conds = append(conds, col+" >= ?")
		args = append(args, dr.From.UTC().Format("2006-01-02 15:04:05"))
	}
	if dr.To != nil {
		conds = append(conds, col+" < ?")
		args = append(args, dr.To.UTC().Format("2006-01-02 15:04:05"))
	}
	return conds, args
}

// CountActiveByLessonTx returns the number of reservations for the
// lesson whose status still counts against capacity (anything but
// CANCELLED).  It must run inside the same transaction as the insert
// it gates, after the lesson row has been locked, so the read cannot
// race a concurrent booking.
func (r *ReservationRepo) CountActiveByLessonTx(ctx context.Context, tx *sql.Tx, lessonID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE lesson_id = ? AND status != ?`,
		lessonID, model.StatusCancelled).Scan(&n)
	return n, err
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  It populates the generated ID and timestamps on the
// provided model.  The caller must commit or rollback the
// transaction.  Status must be a valid enumeration value
// ('PENDING','PAID','CANCELLED').
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (member_id, lesson_id, status, reservation_type, ticket_id)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.MemberID, res.LessonID, res.Status, res.Type, res.TicketID)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM reservations WHERE id = ?`, res.ID,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetByIDForUpdateTx loads a reservation inside the provided
// transaction with a row lock, for status transitions.  Returns
// ErrReservationNotFound when absent.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, member_id, lesson_id, status, reservation_type, ticket_id, created_at, updated_at
	           FROM reservations WHERE id = ? FOR UPDATE`
	return r.scanReservation(tx.QueryRowContext(ctx, q, id))
}

// GetByID returns a reservation by id or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, member_id, lesson_id, status, reservation_type, ticket_id, created_at, updated_at
	           FROM reservations WHERE id = ?`
	return r.scanReservation(r.db.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx moves a reservation from one status to another.  The
// UPDATE is conditional on the current status so a lost race shows up
// as zero affected rows instead of silently overwriting a concurrent
// transition.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
		to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ReservationDetail is a reservation joined with its lesson for
// display to members and admins.
type ReservationDetail struct {
	ID          uint64  `json:"id"`
	MemberID    uint64  `json:"member_id"`
	LessonID    uint64  `json:"lesson_id"`
	LessonTitle string  `json:"lesson_title"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	Status      string  `json:"status"`
	Type        string  `json:"reservation_type"`
	TicketID    *uint64 `json:"ticket_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ListByMember returns all reservations for the given member along
// with lesson details, newest first.  When no reservations exist an
// empty slice is returned.
func (r *ReservationRepo) ListByMember(ctx context.Context, memberID uint64) ([]ReservationDetail, error) {
	const q = `SELECT r.id, r.member_id, r.lesson_id, l.title, l.starts_at, l.ends_at,
	                  r.status, r.reservation_type, r.ticket_id, r.created_at
	           FROM reservations r
	           JOIN lessons l ON l.id = r.lesson_id
	           WHERE r.member_id = ?
	           ORDER BY r.created_at DESC, r.id DESC`
	return r.queryDetails(ctx, q, memberID)
}

// ListByLesson returns reservations for a lesson, optionally filtered
// by a creation-time range, oldest first.  Used by admin listings.
func (r *ReservationRepo) ListByLesson(ctx context.Context, lessonID uint64, created DateRange) ([]ReservationDetail, error) {
	conds := []string{"r.lesson_id = ?"}
	args := []any{lessonID}
	rangeConds, rangeArgs := created.conditions("r.created_at")
	conds = append(conds, rangeConds...)
	args = append(args, rangeArgs...)

	q := `SELECT r.id, r.member_id, r.lesson_id, l.title, l.starts_at, l.ends_at,
	             r.status, r.reservation_type, r.ticket_id, r.created_at
	      FROM reservations r
	      JOIN lessons l ON l.id = r.lesson_id
	      WHERE ` + strings.Join(conds, " AND ") + `
	      ORDER BY r.created_at ASC, r.id ASC`
	return r.queryDetails(ctx, q, args...)
}

func (r *ReservationRepo) queryDetails(ctx context.Context, q string, args ...any) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var starts, ends, created time.Time
		var ticketID sql.NullInt64
		if err := rows.Scan(&d.ID, &d.MemberID, &d.LessonID, &d.LessonTitle,
			&starts, &ends, &d.Status, &d.Type, &ticketID, &created); err != nil {
			return nil, err
		}
		d.StartsAt = starts.UTC().Format(time.RFC3339)
		d.EndsAt = ends.UTC().Format(time.RFC3339)
		d.CreatedAt = created.UTC().Format(time.RFC3339)
		if ticketID.Valid {
			tid := uint64(ticketID.Int64)
			d.TicketID = &tid
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *ReservationRepo) scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var ticketID sql.NullInt64
	err := row.Scan(&res.ID, &res.MemberID, &res.LessonID, &res.Status, &res.Type,
		&ticketID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if ticketID.Valid {
		tid := uint64(ticketID.Int64)
		res.TicketID = &tid
	}
	return &res, nil
}
