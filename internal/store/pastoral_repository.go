/**
 * @description
 * Pastoral scheduling queries. Requesting an appointment locks the slot
 * row so two members cannot claim the same availability, and status
 * transitions are validated under the same lock before being applied.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

// CreateSchedule publishes one availability slot.
func (r *Repository) CreateSchedule(ctx context.Context, s *domain.PastoralSchedule) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pastoral_schedules (id, tenant_id, pastor_name, slot_date, start_time, end_time, available, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.TenantID, s.PastorName, s.SlotDate, s.StartTime, s.EndTime, s.Available, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// ListSchedules returns the tenant's slots, soonest first. When
// availableOnly is set, booked slots are filtered out.
func (r *Repository) ListSchedules(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]domain.PastoralSchedule, error) {
	query := `SELECT id, tenant_id, pastor_name, slot_date, start_time, end_time, available, created_at
              FROM pastoral_schedules WHERE tenant_id = $1`
	if availableOnly {
		query += ` AND available`
	}
	query += ` ORDER BY slot_date, start_time`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.PastoralSchedule
	for rows.Next() {
		var s domain.PastoralSchedule
		if err := rows.Scan(&s.ID, &s.TenantID, &s.PastorName, &s.SlotDate,
			&s.StartTime, &s.EndTime, &s.Available, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// DeleteSchedule removes an unbooked slot.
func (r *Repository) DeleteSchedule(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM pastoral_schedules WHERE id = $1 AND tenant_id = $2 AND available`,
		id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RequestAppointment claims an available slot and inserts the pending
// appointment in one transaction. The slot is locked first so concurrent
// requests for the same slot serialize and exactly one wins.
func (r *Repository) RequestAppointment(ctx context.Context, a *domain.PastoralAppointment) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		var available bool
		err := tx.QueryRow(ctx,
			`SELECT available FROM pastoral_schedules
             WHERE id = $1 AND tenant_id = $2
             FOR UPDATE`,
			a.ScheduleID, a.TenantID,
		).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock schedule: %w", err)
		}
		if !available {
			return ErrSlotUnavailable
		}

		if _, err := tx.Exec(ctx,
			`UPDATE pastoral_schedules SET available = FALSE WHERE id = $1 AND tenant_id = $2`,
			a.ScheduleID, a.TenantID,
		); err != nil {
			return fmt.Errorf("claim schedule: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO pastoral_appointments (id, tenant_id, schedule_id, member_id, subject, notes, status, created_at, updated_at)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.TenantID, a.ScheduleID, a.MemberID, a.Subject, a.Notes, a.Status, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
}

// UpdateAppointmentStatus applies one transition of the appointment state
// machine. Illegal transitions fail with ErrInvalidTransition; moving to
// cancelled frees the underlying slot in the same transaction.
func (r *Repository) UpdateAppointmentStatus(ctx context.Context, tenantID, id uuid.UUID, target string) (*domain.PastoralAppointment, error) {
	var appt domain.PastoralAppointment
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT id, tenant_id, schedule_id, member_id, subject, notes, status, created_at, updated_at
             FROM pastoral_appointments
             WHERE id = $1 AND tenant_id = $2
             FOR UPDATE`,
			id, tenantID,
		).Scan(&appt.ID, &appt.TenantID, &appt.ScheduleID, &appt.MemberID,
			&appt.Subject, &appt.Notes, &appt.Status, &appt.CreatedAt, &appt.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock appointment: %w", err)
		}
		if !appt.CanTransitionTo(target) {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx,
			`UPDATE pastoral_appointments SET status = $3, updated_at = $4
             WHERE id = $1 AND tenant_id = $2`,
			id, tenantID, target, now,
		); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		appt.Status = target
		appt.UpdatedAt = now

		if target == domain.AppointmentStatusCancelled {
			if _, err := tx.Exec(ctx,
				`UPDATE pastoral_schedules SET available = TRUE WHERE id = $1 AND tenant_id = $2`,
				appt.ScheduleID, tenantID,
			); err != nil {
				return fmt.Errorf("release schedule: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// GetAppointment returns one appointment scoped to the tenant.
func (r *Repository) GetAppointment(ctx context.Context, tenantID, id uuid.UUID) (*domain.PastoralAppointment, error) {
	var a domain.PastoralAppointment
	err := r.db.QueryRow(ctx,
		`SELECT id, tenant_id, schedule_id, member_id, subject, notes, status, created_at, updated_at
         FROM pastoral_appointments WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&a.ID, &a.TenantID, &a.ScheduleID, &a.MemberID,
		&a.Subject, &a.Notes, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &a, nil
}

// ListAppointments returns the tenant's appointments with display fields,
// newest first.
func (r *Repository) ListAppointments(ctx context.Context, tenantID uuid.UUID) ([]domain.PastoralAppointment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.tenant_id, a.schedule_id, a.member_id, a.subject, a.notes, a.status,
                a.created_at, a.updated_at, m.name, s.pastor_name
         FROM pastoral_appointments a
         JOIN members m ON m.id = a.member_id
         JOIN pastoral_schedules s ON s.id = a.schedule_id
         WHERE a.tenant_id = $1
         ORDER BY a.created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []domain.PastoralAppointment
	for rows.Next() {
		var a domain.PastoralAppointment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ScheduleID, &a.MemberID, &a.Subject, &a.Notes,
			&a.Status, &a.CreatedAt, &a.UpdatedAt, &a.MemberName, &a.PastorName); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}
