package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/studio-lesson-booking/internal/model"
	"github.com/iliyamo/studio-lesson-booking/internal/utils"
)

// MemberRepo manages persistence for member accounts in the `members`
// table. One email per member is enforced by a unique key; the
// repository maps the driver's duplicate-key error to ErrEmailExists.
type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a member and returns its ID. The password is hashed
// with bcrypt at the given cost before it touches the database.
func (r *MemberRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO members (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a member by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var m model.Member
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM members WHERE email=? LIMIT 1",
		email).Scan(&m.ID, &m.Email, &m.PasswordHash, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	var m model.Member
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM members WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.Email, &m.PasswordHash, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}
