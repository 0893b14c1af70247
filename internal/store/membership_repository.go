/**
 * @description
 * Tenancy, account and member-directory queries: session resolution from
 * tenant_users/user_roles, the provisioning steps (profiles, roles,
 * memberships) with their compensating deletes, and member CRUD.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

// ResolveSession finds the active tenant membership and role for a user.
// A user without an active tenant_users row gets ErrNoActiveTenant, which
// downstream code treats as "not authorized for any tenant-scoped data".
func (r *Repository) ResolveSession(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	query := `
        SELECT tu.tenant_id, ur.role
        FROM tenant_users tu
        JOIN user_roles ur ON ur.user_id = tu.user_id AND ur.tenant_id = tu.tenant_id
        WHERE tu.user_id = $1 AND tu.status = 'active'
        LIMIT 1
    `
	sess := &domain.Session{UserID: userID}
	err := r.db.QueryRow(ctx, query, userID).Scan(&sess.TenantID, &sess.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveTenant
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return sess, nil
}

// GetUserRole re-derives a user's role within a tenant directly from the
// database. The provisioning flow uses this instead of trusting the
// session object built at request time.
func (r *Repository) GetUserRole(ctx context.Context, userID, tenantID uuid.UUID) (string, error) {
	var role string
	err := r.db.QueryRow(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}

// GetTenant returns one tenant by id.
func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.QueryRow(ctx,
		`SELECT id, name, subdomain, created_at FROM tenants WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Subdomain, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

// ── Provisioning steps ──────────────────────────────────────────────────
//
// Each step is an independent statement on purpose: the provisioning
// service performs them in sequence and compensates earlier steps by
// calling the matching Delete* when a later step fails.

// CreateProfile inserts the account row for a new user.
func (r *Repository) CreateProfile(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (id, name, email, password_hash, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile row (compensation path).
func (r *Repository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// CreateUserRole inserts the per-tenant role row for a user.
func (r *Repository) CreateUserRole(ctx context.Context, role domain.UserRole) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_roles (user_id, tenant_id, role) VALUES ($1, $2, $3)`,
		role.UserID, role.TenantID, role.Role,
	)
	if err != nil {
		return fmt.Errorf("insert user role: %w", err)
	}
	return nil
}

// DeleteUserRole removes a role row (compensation path).
func (r *Repository) DeleteUserRole(ctx context.Context, userID, tenantID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("delete user role: %w", err)
	}
	return nil
}

// CreateTenantMembership inserts the tenant_users row for a new user.
func (r *Repository) CreateTenantMembership(ctx context.Context, tu domain.TenantUser) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tenant_users (tenant_id, user_id, status, created_at)
         VALUES ($1, $2, $3, $4)`,
		tu.TenantID, tu.UserID, tu.Status, tu.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tenant membership: %w", err)
	}
	return nil
}

// DeleteTenantMembership removes a tenant_users row (compensation path).
func (r *Repository) DeleteTenantMembership(ctx context.Context, userID, tenantID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM tenant_users WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("delete tenant membership: %w", err)
	}
	return nil
}

// ── Member directory ────────────────────────────────────────────────────

const memberColumns = `id, tenant_id, name, email, phone, status, role, avatar_url, created_at, updated_at`

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Email, &m.Phone,
		&m.Status, &m.Role, &m.AvatarURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMember inserts a member into the tenant's directory.
func (r *Repository) CreateMember(ctx context.Context, m *domain.Member) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO members (id, tenant_id, name, email, phone, status, role, avatar_url, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.TenantID, m.Name, m.Email, m.Phone, m.Status, m.Role, m.AvatarURL, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetMember returns one member scoped to the tenant.
func (r *Repository) GetMember(ctx context.Context, tenantID, id uuid.UUID) (*domain.Member, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns the tenant's directory ordered by name.
func (r *Repository) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]domain.Member, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+memberColumns+` FROM members WHERE tenant_id = $1 ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// UpdateMember overwrites the mutable fields of a member.
func (r *Repository) UpdateMember(ctx context.Context, tenantID, id uuid.UUID, in domain.MemberInput) (*domain.Member, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE members
         SET name = $3, email = $4, phone = $5, status = $6, role = $7, avatar_url = $8, updated_at = $9
         WHERE id = $1 AND tenant_id = $2
         RETURNING `+memberColumns,
		id, tenantID, in.Name, in.Email, in.Phone, in.Status, in.Role, in.AvatarURL, time.Now().UTC(),
	)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("update member: %w", err)
	}
	return m, nil
}

// DeleteMember removes a member from the directory.
func (r *Repository) DeleteMember(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM members WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}
