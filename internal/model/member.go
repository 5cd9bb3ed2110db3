package model

import "time"

// Role values stored in the `members.role` column and carried in the
// JWT "role" claim.  ADMIN accounts manage lessons, tickets and
// reservations for everyone; MEMBER accounts only act on their own
// bookings.
const (
    RoleAdmin  = "ADMIN"
    RoleMember = "MEMBER"
)

// Member represents an application user record as stored in the
// `members` table.  Each field corresponds to a column in the
// database.  The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the member.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – authorization role (ADMIN or MEMBER).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Member struct {
    ID           uint64    // members.id
    Email        string    // members.email
    PasswordHash string    // members.password_hash
    Role         string    // members.role
    IsActive     bool      // members.is_active
    CreatedAt    time.Time // members.created_at
    UpdatedAt    time.Time // members.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a member and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    MemberID  uint64     // refresh_tokens.member_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
