/**
 * @description
 * Member directory models. A member is a person in the congregation, not
 * necessarily a user account; circulation (loans, reservations) and
 * attendance reference members, while authentication references profiles.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member statuses. Only active members may borrow or reserve books.
const (
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
)

// Member represents a person in the church directory.
type Member struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"` // 'active', 'inactive'
	Role      string    `json:"role,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanBorrow reports whether circulation operations are allowed for the member.
func (m *Member) CanBorrow() bool {
	return m.Status == MemberStatusActive
}

// MemberInput is the DTO for creating or updating a member.
type MemberInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}
