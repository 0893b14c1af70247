/**
 * @description
 * Privileged user provisioning. Creating a user is a four-step sequence —
 * profile, role row, tenant membership, then the provisioned event — and
 * any failure after the first step compensates by deleting what was
 * already created, in reverse order. This is the one multi-step rollback
 * in the system; everything else is a single statement or a database
 * transaction.
 *
 * Authorization is re-derived from user_roles here rather than trusting
 * the request's session: callers must hold the owner or admin role, and
 * admins may only create member-role users inside their own tenant.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/pkg/rabbitmq"
)

// ErrRoleNotAllowed is returned when the caller's role cannot grant the
// requested role.
var ErrRoleNotAllowed = errors.New("caller role cannot create this user")

// ProvisioningRepository defines the database operations provisioning needs.
type ProvisioningRepository interface {
	GetUserRole(ctx context.Context, userID, tenantID uuid.UUID) (string, error)
	CreateProfile(ctx context.Context, p *domain.Profile) error
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	CreateUserRole(ctx context.Context, role domain.UserRole) error
	DeleteUserRole(ctx context.Context, userID, tenantID uuid.UUID) error
	CreateTenantMembership(ctx context.Context, tu domain.TenantUser) error
	DeleteTenantMembership(ctx context.Context, userID, tenantID uuid.UUID) error
}

// ProvisioningService creates user accounts on behalf of administrators.
type ProvisioningService struct {
	repo     ProvisioningRepository
	producer rabbitmq.Publisher
	logger   *slog.Logger
}

// NewProvisioningService creates a new provisioning service.
func NewProvisioningService(repo ProvisioningRepository, producer rabbitmq.Publisher, logger *slog.Logger) *ProvisioningService {
	return &ProvisioningService{repo: repo, producer: producer, logger: logger}
}

func validRole(role string) bool {
	return role == domain.RoleOwner || role == domain.RoleAdmin || role == domain.RoleMember
}

// CreateUser provisions a profile, role and tenant membership for a new
// user. callerID and callerTenantID identify the administrator making
// the request; their role is read back from the database before acting.
func (s *ProvisioningService) CreateUser(ctx context.Context, callerID, callerTenantID uuid.UUID, req domain.CreateUserRequest) (*domain.Profile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if !validRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}
	if req.TenantID == uuid.Nil {
		req.TenantID = callerTenantID
	}

	callerRole, err := s.repo.GetUserRole(ctx, callerID, callerTenantID)
	if err != nil {
		return nil, fmt.Errorf("verify caller role: %w", err)
	}
	switch callerRole {
	case domain.RoleOwner:
		// Owners may create any role in any tenant.
	case domain.RoleAdmin:
		if req.Role != domain.RoleMember || req.TenantID != callerTenantID {
			return nil, ErrRoleNotAllowed
		}
	default:
		return nil, ErrForbidden
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	profile := &domain.Profile{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	// Step 1: profile row.
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	// Step 2: role row; undo step 1 on failure.
	role := domain.UserRole{UserID: profile.ID, TenantID: req.TenantID, Role: req.Role}
	if err := s.repo.CreateUserRole(ctx, role); err != nil {
		s.compensate(ctx, "profile", func(cctx context.Context) error {
			return s.repo.DeleteProfile(cctx, profile.ID)
		})
		return nil, fmt.Errorf("create role: %w", err)
	}

	// Step 3: tenant membership; undo steps 2 and 1 on failure.
	membership := domain.TenantUser{
		TenantID:  req.TenantID,
		UserID:    profile.ID,
		Status:    "active",
		CreatedAt: now,
	}
	if err := s.repo.CreateTenantMembership(ctx, membership); err != nil {
		s.compensate(ctx, "role", func(cctx context.Context) error {
			return s.repo.DeleteUserRole(cctx, profile.ID, req.TenantID)
		})
		s.compensate(ctx, "profile", func(cctx context.Context) error {
			return s.repo.DeleteProfile(cctx, profile.ID)
		})
		return nil, fmt.Errorf("create membership: %w", err)
	}

	// Step 4: announce. Publishing is best-effort and never rolls back
	// the committed rows.
	if s.producer != nil {
		event := domain.UserProvisionedEvent{
			TenantID:   req.TenantID,
			UserID:     profile.ID,
			Email:      profile.Email,
			Role:       req.Role,
			OccurredAt: now,
		}
		if err := s.producer.Publish(ctx, domain.Exchange, domain.RoutingUserProvisioned, event); err != nil {
			s.logger.Error("failed to publish user provisioned event", "user_id", profile.ID, "error", err)
		}
	}

	s.logger.Info("user provisioned", "user_id", profile.ID, "tenant_id", req.TenantID, "role", req.Role)
	return profile, nil
}

// compensate runs one rollback step with its own timeout, detached from
// the (possibly already failed) request context.
func (s *ProvisioningService) compensate(ctx context.Context, step string, fn func(context.Context) error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := fn(cctx); err != nil {
		// A failed compensation leaves an orphan row; log loudly, it
		// needs manual cleanup.
		s.logger.Error("provisioning compensation failed", "step", step, "error", err)
	}
}
