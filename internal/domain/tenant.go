/**
 * @description
 * This file defines the tenancy and authorization models for the church
 * management service. Every church ("tenant") owns its own members, books,
 * events and schedules; a user belongs to a tenant through a tenant_users
 * row and carries exactly one role per tenant.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role values stored in the user_roles table.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Tenant represents a single church organization.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantUser links a user account to a tenant. Only rows with status
// 'active' grant access to tenant-scoped data.
type TenantUser struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"` // 'active', 'inactive'
	CreatedAt time.Time `json:"created_at"`
}

// Session is the resolved identity for one authenticated request. It is
// built by the API middleware from the JWT subject and the active
// tenant_users row, and passed explicitly to the service layer; there is
// no ambient global auth state.
type Session struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     string
}

// IsAdmin reports whether the session may perform administrative actions.
// Owners are a superset of admins.
func (s Session) IsAdmin() bool {
	return s.Role == RoleOwner || s.Role == RoleAdmin
}

// IsMember reports whether the session belongs to any role at all.
func (s Session) IsMember() bool {
	return s.Role != ""
}
