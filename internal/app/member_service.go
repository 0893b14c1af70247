/**
 * @description
 * Business logic for the member directory. Plain tenant-scoped CRUD;
 * mutations require the admin role.
 */

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

// MemberRepository defines the database operations the member service needs.
type MemberRepository interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)

	CreateMember(ctx context.Context, m *domain.Member) error
	GetMember(ctx context.Context, tenantID, id uuid.UUID) (*domain.Member, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]domain.Member, error)
	UpdateMember(ctx context.Context, tenantID, id uuid.UUID, in domain.MemberInput) (*domain.Member, error)
	DeleteMember(ctx context.Context, tenantID, id uuid.UUID) error
}

// MemberService manages the member directory.
type MemberService struct {
	repo MemberRepository
}

// NewMemberService creates a new member service.
func NewMemberService(repo MemberRepository) *MemberService {
	return &MemberService{repo: repo}
}

func validateMemberInput(in *domain.MemberInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = domain.MemberStatusActive
	}
	if in.Status != domain.MemberStatusActive && in.Status != domain.MemberStatusInactive {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	return nil
}

// CurrentTenant returns the tenant the session is scoped to.
func (s *MemberService) CurrentTenant(ctx context.Context, sess domain.Session) (*domain.Tenant, error) {
	return s.repo.GetTenant(ctx, sess.TenantID)
}

// CreateMember adds a person to the tenant's directory.
func (s *MemberService) CreateMember(ctx context.Context, sess domain.Session, in domain.MemberInput) (*domain.Member, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := validateMemberInput(&in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	member := &domain.Member{
		ID:        uuid.New(),
		TenantID:  sess.TenantID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Status:    in.Status,
		Role:      in.Role,
		AvatarURL: in.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// GetMember returns one member.
func (s *MemberService) GetMember(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.Member, error) {
	return s.repo.GetMember(ctx, sess.TenantID, id)
}

// ListMembers returns the tenant's directory.
func (s *MemberService) ListMembers(ctx context.Context, sess domain.Session) ([]domain.Member, error) {
	return s.repo.ListMembers(ctx, sess.TenantID)
}

// UpdateMember overwrites a member's fields.
func (s *MemberService) UpdateMember(ctx context.Context, sess domain.Session, id uuid.UUID, in domain.MemberInput) (*domain.Member, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := validateMemberInput(&in); err != nil {
		return nil, err
	}
	return s.repo.UpdateMember(ctx, sess.TenantID, id, in)
}

// DeleteMember removes a member from the directory.
func (s *MemberService) DeleteMember(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.DeleteMember(ctx, sess.TenantID, id)
}
