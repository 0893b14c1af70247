/**
 * @description
 * Business logic for events, courses (with enrollments) and Sunday-school
 * classes (with lessons and attendance). These modules share the same
 * tenant-scoped CRUD shape; the interesting rules are the enrollment
 * capacity guard and the member-or-visitor constraint on attendance.
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

// ScheduleRepository defines the database operations the schedule service needs.
type ScheduleRepository interface {
	CreateEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, tenantID, id uuid.UUID) (*domain.Event, error)
	ListEvents(ctx context.Context, tenantID uuid.UUID) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, tenantID, id uuid.UUID, in domain.EventInput) (*domain.Event, error)
	DeleteEvent(ctx context.Context, tenantID, id uuid.UUID) error

	CreateCourse(ctx context.Context, c *domain.Course) error
	GetCourse(ctx context.Context, tenantID, id uuid.UUID) (*domain.Course, error)
	ListCourses(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error)
	UpdateCourse(ctx context.Context, tenantID, id uuid.UUID, in domain.CourseInput) (*domain.Course, error)
	DeleteCourse(ctx context.Context, tenantID, id uuid.UUID) error
	EnrollMember(ctx context.Context, e *domain.Enrollment, tenantID uuid.UUID) error
	UpdateEnrollmentStatus(ctx context.Context, courseID, enrollmentID uuid.UUID, status string) error
	ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]domain.Enrollment, error)

	CreateClass(ctx context.Context, c *domain.SundaySchoolClass) error
	GetClass(ctx context.Context, tenantID, id uuid.UUID) (*domain.SundaySchoolClass, error)
	ListClasses(ctx context.Context, tenantID uuid.UUID) ([]domain.SundaySchoolClass, error)
	UpdateClass(ctx context.Context, tenantID, id uuid.UUID, in domain.SundaySchoolClassInput) (*domain.SundaySchoolClass, error)
	DeleteClass(ctx context.Context, tenantID, id uuid.UUID) error
	CreateLesson(ctx context.Context, l *domain.Lesson) error
	GetLesson(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lesson, error)
	ListLessons(ctx context.Context, classID uuid.UUID) ([]domain.Lesson, error)
	RecordAttendance(ctx context.Context, a *domain.AttendanceRecord) error
	ListAttendance(ctx context.Context, lessonID uuid.UUID) ([]domain.AttendanceRecord, error)
}

// ScheduleService manages events, courses and Sunday-school records.
type ScheduleService struct {
	repo ScheduleRepository
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(repo ScheduleRepository) *ScheduleService {
	return &ScheduleService{repo: repo}
}

// ── Events ──────────────────────────────────────────────────────────────

// CreateEvent adds an event to the tenant's calendar.
func (s *ScheduleService) CreateEvent(ctx context.Context, sess domain.Session, in domain.EventInput) (*domain.Event, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, fmt.Errorf("%w: ends_at must be after starts_at", ErrInvalidInput)
	}

	event := &domain.Event{
		ID:          uuid.New(),
		TenantID:    sess.TenantID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		ImageURL:    in.ImageURL,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Capacity:    in.Capacity,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetEvent returns one event.
func (s *ScheduleService) GetEvent(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.Event, error) {
	return s.repo.GetEvent(ctx, sess.TenantID, id)
}

// ListEvents returns the tenant's calendar.
func (s *ScheduleService) ListEvents(ctx context.Context, sess domain.Session) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx, sess.TenantID)
}

// UpdateEvent overwrites an event's fields.
func (s *ScheduleService) UpdateEvent(ctx context.Context, sess domain.Session, id uuid.UUID, in domain.EventInput) (*domain.Event, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, fmt.Errorf("%w: ends_at must be after starts_at", ErrInvalidInput)
	}
	return s.repo.UpdateEvent(ctx, sess.TenantID, id, in)
}

// DeleteEvent removes an event.
func (s *ScheduleService) DeleteEvent(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.DeleteEvent(ctx, sess.TenantID, id)
}

// ── Courses ─────────────────────────────────────────────────────────────

// CreateCourse adds a course.
func (s *ScheduleService) CreateCourse(ctx context.Context, sess domain.Session, in domain.CourseInput) (*domain.Course, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	course := &domain.Course{
		ID:          uuid.New(),
		TenantID:    sess.TenantID,
		Title:       in.Title,
		Description: in.Description,
		Instructor:  in.Instructor,
		StartsOn:    in.StartsOn,
		EndsOn:      in.EndsOn,
		MaxStudents: in.MaxStudents,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// GetCourse returns one course.
func (s *ScheduleService) GetCourse(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.Course, error) {
	return s.repo.GetCourse(ctx, sess.TenantID, id)
}

// ListCourses returns the tenant's courses.
func (s *ScheduleService) ListCourses(ctx context.Context, sess domain.Session) ([]domain.Course, error) {
	return s.repo.ListCourses(ctx, sess.TenantID)
}

// UpdateCourse overwrites a course's fields.
func (s *ScheduleService) UpdateCourse(ctx context.Context, sess domain.Session, id uuid.UUID, in domain.CourseInput) (*domain.Course, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.UpdateCourse(ctx, sess.TenantID, id, in)
}

// DeleteCourse removes a course.
func (s *ScheduleService) DeleteCourse(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.DeleteCourse(ctx, sess.TenantID, id)
}

// EnrollMember enrolls a member in a course, respecting max_students.
func (s *ScheduleService) EnrollMember(ctx context.Context, sess domain.Session, courseID, memberID uuid.UUID) (*domain.Enrollment, error) {
	if courseID == uuid.Nil || memberID == uuid.Nil {
		return nil, fmt.Errorf("%w: course_id and member_id are required", ErrInvalidInput)
	}
	enrollment := &domain.Enrollment{
		ID:         uuid.New(),
		CourseID:   courseID,
		MemberID:   memberID,
		Status:     domain.EnrollmentStatusEnrolled,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.repo.EnrollMember(ctx, enrollment, sess.TenantID); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// DropEnrollment marks an enrollment dropped. The course must belong to
// the session's tenant.
func (s *ScheduleService) DropEnrollment(ctx context.Context, sess domain.Session, courseID, enrollmentID uuid.UUID) error {
	if _, err := s.repo.GetCourse(ctx, sess.TenantID, courseID); err != nil {
		return err
	}
	return s.repo.UpdateEnrollmentStatus(ctx, courseID, enrollmentID, domain.EnrollmentStatusDropped)
}

// ListEnrollments returns a course's roster.
func (s *ScheduleService) ListEnrollments(ctx context.Context, sess domain.Session, courseID uuid.UUID) ([]domain.Enrollment, error) {
	if _, err := s.repo.GetCourse(ctx, sess.TenantID, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListEnrollments(ctx, courseID)
}

// ── Sunday school ───────────────────────────────────────────────────────

// CreateClass adds a Sunday-school class.
func (s *ScheduleService) CreateClass(ctx context.Context, sess domain.Session, in domain.SundaySchoolClassInput) (*domain.SundaySchoolClass, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	class := &domain.SundaySchoolClass{
		ID:        uuid.New(),
		TenantID:  sess.TenantID,
		Name:      in.Name,
		Teacher:   in.Teacher,
		AgeGroup:  in.AgeGroup,
		Room:      in.Room,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateClass(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

// ListClasses returns the tenant's classes.
func (s *ScheduleService) ListClasses(ctx context.Context, sess domain.Session) ([]domain.SundaySchoolClass, error) {
	return s.repo.ListClasses(ctx, sess.TenantID)
}

// UpdateClass overwrites a class's fields.
func (s *ScheduleService) UpdateClass(ctx context.Context, sess domain.Session, id uuid.UUID, in domain.SundaySchoolClassInput) (*domain.SundaySchoolClass, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.UpdateClass(ctx, sess.TenantID, id, in)
}

// DeleteClass removes a class.
func (s *ScheduleService) DeleteClass(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return s.repo.DeleteClass(ctx, sess.TenantID, id)
}

// CreateLesson adds a dated lesson to a class.
func (s *ScheduleService) CreateLesson(ctx context.Context, sess domain.Session, classID uuid.UUID, lessonDate time.Time, topic string) (*domain.Lesson, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.repo.GetClass(ctx, sess.TenantID, classID); err != nil {
		return nil, err
	}

	lesson := &domain.Lesson{
		ID:         uuid.New(),
		ClassID:    classID,
		LessonDate: lessonDate,
		Topic:      topic,
	}
	if err := s.repo.CreateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListLessons returns a class's lessons.
func (s *ScheduleService) ListLessons(ctx context.Context, sess domain.Session, classID uuid.UUID) ([]domain.Lesson, error) {
	if _, err := s.repo.GetClass(ctx, sess.TenantID, classID); err != nil {
		return nil, err
	}
	return s.repo.ListLessons(ctx, classID)
}

// RecordAttendance records one person at a lesson. Exactly one of
// member_id or visitor_name must be provided, and the lesson must belong
// to a class in the session's tenant.
func (s *ScheduleService) RecordAttendance(ctx context.Context, sess domain.Session, lessonID uuid.UUID, in domain.AttendanceInput) (*domain.AttendanceRecord, error) {
	hasMember := in.MemberID != nil && *in.MemberID != uuid.Nil
	hasVisitor := strings.TrimSpace(in.VisitorName) != ""
	if hasMember == hasVisitor {
		return nil, fmt.Errorf("%w: exactly one of member_id or visitor_name is required", ErrInvalidInput)
	}
	if _, err := s.repo.GetLesson(ctx, sess.TenantID, lessonID); err != nil {
		return nil, err
	}

	record := &domain.AttendanceRecord{
		ID:          uuid.New(),
		LessonID:    lessonID,
		MemberID:    in.MemberID,
		VisitorName: strings.TrimSpace(in.VisitorName),
		Present:     in.Present,
		RecordedAt:  time.Now().UTC(),
	}
	if err := s.repo.RecordAttendance(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListAttendance returns a lesson's attendance records. The lesson must
// belong to a class in the session's tenant.
func (s *ScheduleService) ListAttendance(ctx context.Context, sess domain.Session, lessonID uuid.UUID) ([]domain.AttendanceRecord, error) {
	if _, err := s.repo.GetLesson(ctx, sess.TenantID, lessonID); err != nil {
		return nil, err
	}
	return s.repo.ListAttendance(ctx, lessonID)
}
