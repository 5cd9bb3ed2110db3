package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
)

// TicketGroupRepo manages persistence for named ticket groups.  A
// group widens ticket matching: a lesson linked to a group accepts
// any ticket of the same group regardless of raw category.
type TicketGroupRepo struct {
	db *sql.DB
}

// NewTicketGroupRepo returns a new TicketGroupRepo bound to the given database.
func NewTicketGroupRepo(db *sql.DB) *TicketGroupRepo { return &TicketGroupRepo{db: db} }

// Create inserts a group.  Group names carry a unique key; a
// duplicate insert maps to ErrGroupNameExists.
func (r *TicketGroupRepo) Create(ctx context.Context, g *model.TicketGroup) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ticket_groups (name) VALUES (?)`, strings.TrimSpace(g.Name))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrGroupNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT name, created_at FROM ticket_groups WHERE id = ?`, g.ID,
	).Scan(&g.Name, &g.CreatedAt)
}

// GetByID returns a group by id or ErrTicketGroupNotFound.
func (r *TicketGroupRepo) GetByID(ctx context.Context, id uint64) (*model.TicketGroup, error) {
	var g model.TicketGroup
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM ticket_groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

// List returns all groups ordered by name.
func (r *TicketGroupRepo) List(ctx context.Context) ([]model.TicketGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM ticket_groups ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TicketGroup
	for rows.Next() {
		var g model.TicketGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
