/**
 * @description
 * Account-level models used by the provisioning flow: the profile row that
 * backs an authenticated user and the per-tenant role row.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the account record for an authenticated user.
// PasswordHash is a bcrypt hash and is never serialized.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRole assigns a role to a user within one tenant.
type UserRole struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"` // 'owner', 'admin', 'member'
}

// CreateUserRequest is the DTO for the privileged user-provisioning
// endpoint. The caller's own role is re-derived from the database before
// this request is honored.
type CreateUserRequest struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"`
}
