/**
 * @description
 * This package implements the data access layer on PostgreSQL using pgx.
 * It owns all SQL, scans rows into explicit domain structs at the
 * boundary, and reports domain conditions through sentinel errors so the
 * service and API layers can map them without string matching.
 *
 * Every query on tenant-owned tables filters by tenant_id; cross-tenant
 * reads are only performed by the sweep jobs, which operate set-based
 * over all tenants.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrNotFound             = errors.New("not found")
	ErrNoActiveTenant       = errors.New("no active tenant membership")
	ErrBookNotFound         = errors.New("book not found")
	ErrBookUnavailable      = errors.New("no copies available")
	ErrMemberNotFound       = errors.New("member not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationNotActive = errors.New("reservation is not active")
	ErrReservationExpired   = errors.New("reservation has expired")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanAlreadyReturned  = errors.New("loan is already returned")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrCourseFull           = errors.New("course has no remaining places")
	ErrAlreadyEnrolled      = errors.New("member is already enrolled")
	ErrSlotUnavailable      = errors.New("schedule slot is not available")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// Repository handles all database operations for the service. Methods are
// grouped by aggregate across the files of this package.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository backed by the given pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *Repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
