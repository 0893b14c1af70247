package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/store"
)

type scheduleRepoStub struct {
	ScheduleRepository

	enrollErr    error
	enrollCalled bool

	course    *domain.Course
	courseErr error

	lessonErr error

	attendance         *domain.AttendanceRecord
	updateStatusCalled bool
}

func (s *scheduleRepoStub) CreateEvent(ctx context.Context, e *domain.Event) error {
	return nil
}

func (s *scheduleRepoStub) EnrollMember(ctx context.Context, e *domain.Enrollment, tenantID uuid.UUID) error {
	s.enrollCalled = true
	return s.enrollErr
}

func (s *scheduleRepoStub) GetCourse(ctx context.Context, tenantID, id uuid.UUID) (*domain.Course, error) {
	if s.courseErr != nil {
		return nil, s.courseErr
	}
	return s.course, nil
}

func (s *scheduleRepoStub) GetLesson(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lesson, error) {
	if s.lessonErr != nil {
		return nil, s.lessonErr
	}
	return &domain.Lesson{ID: id}, nil
}

func (s *scheduleRepoStub) UpdateEnrollmentStatus(ctx context.Context, courseID, enrollmentID uuid.UUID, status string) error {
	s.updateStatusCalled = true
	return nil
}

func (s *scheduleRepoStub) RecordAttendance(ctx context.Context, a *domain.AttendanceRecord) error {
	s.attendance = a
	return nil
}

func (s *scheduleRepoStub) ListAttendance(ctx context.Context, lessonID uuid.UUID) ([]domain.AttendanceRecord, error) {
	return []domain.AttendanceRecord{}, nil
}

func TestCreateEvent_RejectsInvertedWindow(t *testing.T) {
	svc := NewScheduleService(&scheduleRepoStub{})
	now := time.Now()

	_, err := svc.CreateEvent(context.Background(), adminSession(), domain.EventInput{
		Title:    "Culto de Jovens",
		StartsAt: now.Add(2 * time.Hour),
		EndsAt:   now.Add(time.Hour),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateEvent_RequiresAdmin(t *testing.T) {
	svc := NewScheduleService(&scheduleRepoStub{})
	now := time.Now()

	_, err := svc.CreateEvent(context.Background(), memberSession(), domain.EventInput{
		Title:    "Culto",
		StartsAt: now,
		EndsAt:   now.Add(time.Hour),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateEvent_Success(t *testing.T) {
	sess := adminSession()
	svc := NewScheduleService(&scheduleRepoStub{})
	now := time.Now()

	event, err := svc.CreateEvent(context.Background(), sess, domain.EventInput{
		Title:    "  Culto de Jovens  ",
		StartsAt: now,
		EndsAt:   now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if event.Title != "Culto de Jovens" {
		t.Fatalf("expected trimmed title, got %q", event.Title)
	}
	if event.TenantID != sess.TenantID {
		t.Fatal("expected event scoped to the session tenant")
	}
}

func TestEnrollMember_FullCourse(t *testing.T) {
	repo := &scheduleRepoStub{enrollErr: store.ErrCourseFull}
	svc := NewScheduleService(repo)

	_, err := svc.EnrollMember(context.Background(), memberSession(), uuid.New(), uuid.New())
	if !errors.Is(err, store.ErrCourseFull) {
		t.Fatalf("expected ErrCourseFull, got %v", err)
	}
}

func TestEnrollMember_Duplicate(t *testing.T) {
	repo := &scheduleRepoStub{enrollErr: store.ErrAlreadyEnrolled}
	svc := NewScheduleService(repo)

	_, err := svc.EnrollMember(context.Background(), memberSession(), uuid.New(), uuid.New())
	if !errors.Is(err, store.ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestEnrollMember_StartsEnrolled(t *testing.T) {
	repo := &scheduleRepoStub{}
	svc := NewScheduleService(repo)

	enrollment, err := svc.EnrollMember(context.Background(), memberSession(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if enrollment.Status != domain.EnrollmentStatusEnrolled {
		t.Fatalf("expected enrolled status, got %q", enrollment.Status)
	}
}

func TestListEnrollments_UnknownCourse(t *testing.T) {
	repo := &scheduleRepoStub{courseErr: store.ErrNotFound}
	svc := NewScheduleService(repo)

	_, err := svc.ListEnrollments(context.Background(), memberSession(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordAttendance_MemberOrVisitor(t *testing.T) {
	memberID := uuid.New()

	tests := []struct {
		name    string
		input   domain.AttendanceInput
		wantErr bool
	}{
		{"member only", domain.AttendanceInput{MemberID: &memberID, Present: true}, false},
		{"visitor only", domain.AttendanceInput{VisitorName: "João", Present: true}, false},
		{"both set", domain.AttendanceInput{MemberID: &memberID, VisitorName: "João"}, true},
		{"neither set", domain.AttendanceInput{Present: true}, true},
		{"blank visitor counts as unset", domain.AttendanceInput{VisitorName: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewScheduleService(&scheduleRepoStub{})

			_, err := svc.RecordAttendance(context.Background(), memberSession(), uuid.New(), tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
		})
	}
}

func TestDropEnrollment_UnknownCourse(t *testing.T) {
	repo := &scheduleRepoStub{courseErr: store.ErrNotFound}
	svc := NewScheduleService(repo)

	err := svc.DropEnrollment(context.Background(), memberSession(), uuid.New(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.updateStatusCalled {
		t.Fatal("expected no status update for a course outside the tenant")
	}
}

func TestRecordAttendance_LessonOutsideTenant(t *testing.T) {
	repo := &scheduleRepoStub{lessonErr: store.ErrNotFound}
	svc := NewScheduleService(repo)

	_, err := svc.RecordAttendance(context.Background(), memberSession(), uuid.New(), domain.AttendanceInput{
		VisitorName: "João",
		Present:     true,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.attendance != nil {
		t.Fatal("expected no attendance write for a lesson outside the tenant")
	}
}

func TestListAttendance_LessonOutsideTenant(t *testing.T) {
	repo := &scheduleRepoStub{lessonErr: store.ErrNotFound}
	svc := NewScheduleService(repo)

	_, err := svc.ListAttendance(context.Background(), memberSession(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordAttendance_TrimsVisitorName(t *testing.T) {
	repo := &scheduleRepoStub{}
	svc := NewScheduleService(repo)

	record, err := svc.RecordAttendance(context.Background(), memberSession(), uuid.New(), domain.AttendanceInput{
		VisitorName: "  João  ",
		Present:     true,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if record.VisitorName != "João" {
		t.Fatalf("expected trimmed visitor name, got %q", record.VisitorName)
	}
}
