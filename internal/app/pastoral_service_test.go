package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/store"
)

type pastoralRepoStub struct {
	PastoralRepository

	requestErr    error
	requestCalled bool

	updateErr     error
	updatedAppt   *domain.PastoralAppointment
	updatedTarget string

	listedAvailableOnly bool
}

func (s *pastoralRepoStub) RequestAppointment(ctx context.Context, a *domain.PastoralAppointment) error {
	s.requestCalled = true
	return s.requestErr
}

func (s *pastoralRepoStub) UpdateAppointmentStatus(ctx context.Context, tenantID, id uuid.UUID, target string) (*domain.PastoralAppointment, error) {
	s.updatedTarget = target
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updatedAppt, nil
}

func (s *pastoralRepoStub) ListSchedules(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]domain.PastoralSchedule, error) {
	s.listedAvailableOnly = availableOnly
	return nil, nil
}

func TestRequestAppointment_ClaimedSlot(t *testing.T) {
	repo := &pastoralRepoStub{requestErr: store.ErrSlotUnavailable}
	svc := NewPastoralService(repo, nil, testLogger(), nil)

	_, err := svc.RequestAppointment(context.Background(), memberSession(), domain.RequestAppointmentInput{
		ScheduleID: uuid.New(), MemberID: uuid.New(), Subject: "counseling",
	})
	if !errors.Is(err, store.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestRequestAppointment_RequiresSubject(t *testing.T) {
	repo := &pastoralRepoStub{}
	svc := NewPastoralService(repo, nil, testLogger(), nil)

	_, err := svc.RequestAppointment(context.Background(), memberSession(), domain.RequestAppointmentInput{
		ScheduleID: uuid.New(), MemberID: uuid.New(), Subject: "   ",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.requestCalled {
		t.Fatal("expected no slot claim without a subject")
	}
}

func TestRequestAppointment_StartsPendingAndPublishes(t *testing.T) {
	repo := &pastoralRepoStub{}
	producer := &publisherStub{}
	svc := NewPastoralService(repo, producer, testLogger(), nil)

	appt, err := svc.RequestAppointment(context.Background(), memberSession(), domain.RequestAppointmentInput{
		ScheduleID: uuid.New(), MemberID: uuid.New(), Subject: "counseling",
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if appt.Status != domain.AppointmentStatusPending {
		t.Fatalf("expected pending appointment, got %q", appt.Status)
	}
	if len(producer.routingKeys) != 1 || producer.routingKeys[0] != domain.RoutingAppointmentRequested {
		t.Fatalf("expected one %q event, got %v", domain.RoutingAppointmentRequested, producer.routingKeys)
	}
}

func TestAppointmentTransitions_RoleRules(t *testing.T) {
	tests := []struct {
		name    string
		sess    domain.Session
		call    func(*PastoralService, domain.Session) error
		wantErr error
	}{
		{
			name: "member cannot confirm",
			sess: memberSession(),
			call: func(s *PastoralService, sess domain.Session) error {
				_, err := s.ConfirmAppointment(context.Background(), sess, uuid.New())
				return err
			},
			wantErr: ErrForbidden,
		},
		{
			name: "member cannot complete",
			sess: memberSession(),
			call: func(s *PastoralService, sess domain.Session) error {
				_, err := s.CompleteAppointment(context.Background(), sess, uuid.New())
				return err
			},
			wantErr: ErrForbidden,
		},
		{
			name: "member may cancel",
			sess: memberSession(),
			call: func(s *PastoralService, sess domain.Session) error {
				_, err := s.CancelAppointment(context.Background(), sess, uuid.New())
				return err
			},
		},
		{
			name: "admin may confirm",
			sess: adminSession(),
			call: func(s *PastoralService, sess domain.Session) error {
				_, err := s.ConfirmAppointment(context.Background(), sess, uuid.New())
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &pastoralRepoStub{updatedAppt: &domain.PastoralAppointment{ID: uuid.New(), Status: domain.AppointmentStatusConfirmed}}
			svc := NewPastoralService(repo, nil, testLogger(), nil)

			err := tt.call(svc, tt.sess)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfirmAppointment_InvalidTransition(t *testing.T) {
	repo := &pastoralRepoStub{updateErr: store.ErrInvalidTransition}
	svc := NewPastoralService(repo, nil, testLogger(), nil)

	_, err := svc.ConfirmAppointment(context.Background(), adminSession(), uuid.New())
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if repo.updatedTarget != domain.AppointmentStatusConfirmed {
		t.Fatalf("expected confirmed target, got %q", repo.updatedTarget)
	}
}

func TestListSchedules_MembersSeeAvailableOnly(t *testing.T) {
	repo := &pastoralRepoStub{}
	svc := NewPastoralService(repo, nil, testLogger(), nil)

	if _, err := svc.ListSchedules(context.Background(), memberSession()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !repo.listedAvailableOnly {
		t.Fatal("expected members to only see bookable slots")
	}

	if _, err := svc.ListSchedules(context.Background(), adminSession()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if repo.listedAvailableOnly {
		t.Fatal("expected admins to see all slots")
	}
}
