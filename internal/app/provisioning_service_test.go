package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

type provisioningRepoStub struct {
	callerRole    string
	callerRoleErr error

	profileErr    error
	roleErr       error
	membershipErr error

	profileCreated    bool
	profileDeleted    bool
	roleCreated       bool
	roleDeleted       bool
	membershipCreated bool
	membershipDeleted bool

	createdProfile *domain.Profile
	createdRole    domain.UserRole
}

func (s *provisioningRepoStub) GetUserRole(ctx context.Context, userID, tenantID uuid.UUID) (string, error) {
	return s.callerRole, s.callerRoleErr
}

func (s *provisioningRepoStub) CreateProfile(ctx context.Context, p *domain.Profile) error {
	if s.profileErr != nil {
		return s.profileErr
	}
	s.profileCreated = true
	s.createdProfile = p
	return nil
}

func (s *provisioningRepoStub) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	s.profileDeleted = true
	return nil
}

func (s *provisioningRepoStub) CreateUserRole(ctx context.Context, role domain.UserRole) error {
	if s.roleErr != nil {
		return s.roleErr
	}
	s.roleCreated = true
	s.createdRole = role
	return nil
}

func (s *provisioningRepoStub) DeleteUserRole(ctx context.Context, userID, tenantID uuid.UUID) error {
	s.roleDeleted = true
	return nil
}

func (s *provisioningRepoStub) CreateTenantMembership(ctx context.Context, tu domain.TenantUser) error {
	if s.membershipErr != nil {
		return s.membershipErr
	}
	s.membershipCreated = true
	return nil
}

func (s *provisioningRepoStub) DeleteTenantMembership(ctx context.Context, userID, tenantID uuid.UUID) error {
	s.membershipDeleted = true
	return nil
}

func validCreateUserRequest(tenantID uuid.UUID, role string) domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Name:     "Maria Souza",
		Email:    "Maria@Example.org",
		Password: "correct-horse",
		TenantID: tenantID,
		Role:     role,
	}
}

func TestCreateUser_Success(t *testing.T) {
	tenantID := uuid.New()
	repo := &provisioningRepoStub{callerRole: domain.RoleOwner}
	producer := &publisherStub{}
	svc := NewProvisioningService(repo, producer, testLogger())

	profile, err := svc.CreateUser(context.Background(), uuid.New(), tenantID, validCreateUserRequest(tenantID, domain.RoleMember))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !repo.profileCreated || !repo.roleCreated || !repo.membershipCreated {
		t.Fatal("expected all three provisioning steps to run")
	}
	if profile.Email != "maria@example.org" {
		t.Fatalf("expected normalized email, got %q", profile.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte("correct-horse")); err != nil {
		t.Fatalf("expected a valid bcrypt hash: %v", err)
	}
	if len(producer.routingKeys) != 1 || producer.routingKeys[0] != domain.RoutingUserProvisioned {
		t.Fatalf("expected one %q event, got %v", domain.RoutingUserProvisioned, producer.routingKeys)
	}
}

func TestCreateUser_RoleRules(t *testing.T) {
	callerTenant := uuid.New()
	otherTenant := uuid.New()

	tests := []struct {
		name       string
		callerRole string
		reqRole    string
		reqTenant  uuid.UUID
		wantErr    error
	}{
		{"owner creates admin anywhere", domain.RoleOwner, domain.RoleAdmin, otherTenant, nil},
		{"admin creates member in own tenant", domain.RoleAdmin, domain.RoleMember, callerTenant, nil},
		{"admin cannot create admin", domain.RoleAdmin, domain.RoleAdmin, callerTenant, ErrRoleNotAllowed},
		{"admin cannot cross tenants", domain.RoleAdmin, domain.RoleMember, otherTenant, ErrRoleNotAllowed},
		{"member cannot provision", domain.RoleMember, domain.RoleMember, callerTenant, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &provisioningRepoStub{callerRole: tt.callerRole}
			svc := NewProvisioningService(repo, nil, testLogger())

			_, err := svc.CreateUser(context.Background(), uuid.New(), callerTenant, validCreateUserRequest(tt.reqTenant, tt.reqRole))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if repo.profileCreated {
				t.Fatal("expected no rows created on authorization failure")
			}
		})
	}
}

func TestCreateUser_RejectsShortPassword(t *testing.T) {
	repo := &provisioningRepoStub{callerRole: domain.RoleOwner}
	svc := NewProvisioningService(repo, nil, testLogger())

	req := validCreateUserRequest(uuid.New(), domain.RoleMember)
	req.Password = "short"
	_, err := svc.CreateUser(context.Background(), uuid.New(), uuid.New(), req)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateUser_RoleFailureRollsBackProfile(t *testing.T) {
	tenantID := uuid.New()
	repo := &provisioningRepoStub{callerRole: domain.RoleOwner, roleErr: errors.New("db down")}
	svc := NewProvisioningService(repo, nil, testLogger())

	_, err := svc.CreateUser(context.Background(), uuid.New(), tenantID, validCreateUserRequest(tenantID, domain.RoleMember))
	if err == nil {
		t.Fatal("expected error")
	}
	if !repo.profileDeleted {
		t.Fatal("expected the profile to be compensated away")
	}
	if repo.membershipCreated {
		t.Fatal("expected provisioning to stop at the failed step")
	}
}

func TestCreateUser_MembershipFailureRollsBackRoleAndProfile(t *testing.T) {
	tenantID := uuid.New()
	repo := &provisioningRepoStub{callerRole: domain.RoleOwner, membershipErr: errors.New("db down")}
	svc := NewProvisioningService(repo, nil, testLogger())

	_, err := svc.CreateUser(context.Background(), uuid.New(), tenantID, validCreateUserRequest(tenantID, domain.RoleMember))
	if err == nil {
		t.Fatal("expected error")
	}
	if !repo.roleDeleted || !repo.profileDeleted {
		t.Fatal("expected role and profile compensations to run")
	}
}

func TestCreateUser_DefaultsTenantToCaller(t *testing.T) {
	callerTenant := uuid.New()
	repo := &provisioningRepoStub{callerRole: domain.RoleOwner}
	svc := NewProvisioningService(repo, nil, testLogger())

	req := validCreateUserRequest(uuid.Nil, domain.RoleMember)
	if _, err := svc.CreateUser(context.Background(), uuid.New(), callerTenant, req); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if repo.createdRole.TenantID != callerTenant {
		t.Fatalf("expected role in caller's tenant, got %s", repo.createdRole.TenantID)
	}
}
