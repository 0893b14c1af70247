/**
 * @description
 * Business logic for pastoral scheduling: publishing availability slots
 * and walking appointments through their status workflow. Slot claiming
 * and transition checks happen atomically in the store; this layer adds
 * role rules and event publication.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/metrics"
	"github.com/tperrut/gestao-igrejas2-sub000/pkg/rabbitmq"
)

// PastoralRepository defines the database operations the pastoral service needs.
type PastoralRepository interface {
	CreateSchedule(ctx context.Context, s *domain.PastoralSchedule) error
	ListSchedules(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]domain.PastoralSchedule, error)
	DeleteSchedule(ctx context.Context, tenantID, id uuid.UUID) error

	RequestAppointment(ctx context.Context, a *domain.PastoralAppointment) error
	UpdateAppointmentStatus(ctx context.Context, tenantID, id uuid.UUID, target string) (*domain.PastoralAppointment, error)
	GetAppointment(ctx context.Context, tenantID, id uuid.UUID) (*domain.PastoralAppointment, error)
	ListAppointments(ctx context.Context, tenantID uuid.UUID) ([]domain.PastoralAppointment, error)
}

// PastoralService manages availability slots and appointments.
type PastoralService struct {
	repo     PastoralRepository
	producer rabbitmq.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewPastoralService creates a new pastoral service. A nil metrics
// handle disables instrumentation.
func NewPastoralService(repo PastoralRepository, producer rabbitmq.Publisher, logger *slog.Logger, m *metrics.Metrics) *PastoralService {
	return &PastoralService{repo: repo, producer: producer, logger: logger, metrics: m}
}

func (s *PastoralService) publishAppointment(ctx context.Context, routingKey string, a *domain.PastoralAppointment) {
	if s.producer == nil {
		return
	}
	event := domain.AppointmentEvent{
		TenantID:      a.TenantID,
		AppointmentID: a.ID,
		MemberID:      a.MemberID,
		Status:        a.Status,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, domain.Exchange, routingKey, event); err != nil {
		s.logger.Error("failed to publish appointment event", "appointment_id", a.ID, "error", err)
	}
}

// CreateSchedule publishes an availability slot.
func (s *PastoralService) CreateSchedule(ctx context.Context, sess domain.Session, in domain.PastoralScheduleInput) (*domain.PastoralSchedule, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	in.PastorName = strings.TrimSpace(in.PastorName)
	if in.PastorName == "" {
		return nil, fmt.Errorf("%w: pastor_name is required", ErrInvalidInput)
	}
	if in.StartTime == "" || in.EndTime == "" {
		return nil, fmt.Errorf("%w: start_time and end_time are required", ErrInvalidInput)
	}

	schedule := &domain.PastoralSchedule{
		ID:         uuid.New(),
		TenantID:   sess.TenantID,
		PastorName: in.PastorName,
		SlotDate:   in.SlotDate,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Available:  true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// ListSchedules returns the tenant's slots. Non-admins only see slots
// that are still bookable.
func (s *PastoralService) ListSchedules(ctx context.Context, sess domain.Session) ([]domain.PastoralSchedule, error) {
	return s.repo.ListSchedules(ctx, sess.TenantID, !sess.IsAdmin())
}

// DeleteSchedule removes an unbooked slot.
func (s *PastoralService) DeleteSchedule(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.DeleteSchedule(ctx, sess.TenantID, id)
}

// RequestAppointment claims an available slot for a member, creating a
// pending appointment.
func (s *PastoralService) RequestAppointment(ctx context.Context, sess domain.Session, in domain.RequestAppointmentInput) (*domain.PastoralAppointment, error) {
	if in.ScheduleID == uuid.Nil || in.MemberID == uuid.Nil {
		return nil, fmt.Errorf("%w: schedule_id and member_id are required", ErrInvalidInput)
	}
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	appt := &domain.PastoralAppointment{
		ID:         uuid.New(),
		TenantID:   sess.TenantID,
		ScheduleID: in.ScheduleID,
		MemberID:   in.MemberID,
		Subject:    in.Subject,
		Notes:      in.Notes,
		Status:     domain.AppointmentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.RequestAppointment(ctx, appt); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AppointmentBooked()
	}

	s.publishAppointment(ctx, domain.RoutingAppointmentRequested, appt)
	return appt, nil
}

// ConfirmAppointment moves a pending appointment to confirmed. Admin only.
func (s *PastoralService) ConfirmAppointment(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.PastoralAppointment, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.transition(ctx, sess, id, domain.AppointmentStatusConfirmed)
}

// CompleteAppointment moves a confirmed appointment to completed. Admin only.
func (s *PastoralService) CompleteAppointment(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.PastoralAppointment, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.transition(ctx, sess, id, domain.AppointmentStatusCompleted)
}

// CancelAppointment cancels a pending or confirmed appointment, freeing
// its slot. Any user of the tenant may cancel: sessions identify a user
// account, not a member row, so the requester cannot be matched against
// the appointment's member yet.
// TODO: restrict to the requesting member (or an admin) once
// tenant_users carries a member_id link.
func (s *PastoralService) CancelAppointment(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.PastoralAppointment, error) {
	return s.transition(ctx, sess, id, domain.AppointmentStatusCancelled)
}

func (s *PastoralService) transition(ctx context.Context, sess domain.Session, id uuid.UUID, target string) (*domain.PastoralAppointment, error) {
	appt, err := s.repo.UpdateAppointmentStatus(ctx, sess.TenantID, id, target)
	if err != nil {
		return nil, err
	}
	s.publishAppointment(ctx, domain.RoutingAppointmentUpdated, appt)
	return appt, nil
}

// GetAppointment returns one appointment.
func (s *PastoralService) GetAppointment(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.PastoralAppointment, error) {
	return s.repo.GetAppointment(ctx, sess.TenantID, id)
}

// ListAppointments returns the tenant's appointments.
func (s *PastoralService) ListAppointments(ctx context.Context, sess domain.Session) ([]domain.PastoralAppointment, error) {
	return s.repo.ListAppointments(ctx, sess.TenantID)
}
