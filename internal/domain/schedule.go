/**
 * @description
 * Models for the calendar-style modules: events, courses with
 * enrollments, and Sunday-school classes with lessons and attendance.
 * These share the same tenant-scoped CRUD shape with domain-specific
 * fields.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled church event.
type Event struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"` // 0 means unlimited
	CreatedAt   time.Time `json:"created_at"`
}

// EventInput is the DTO for creating or updating an event.
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
}

// Course is a multi-session class members can enroll in.
type Course struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Instructor  string    `json:"instructor,omitempty"`
	StartsOn    time.Time `json:"starts_on"`
	EndsOn      time.Time `json:"ends_on"`
	MaxStudents int       `json:"max_students"` // 0 means unlimited
	CreatedAt   time.Time `json:"created_at"`
}

// CourseInput is the DTO for creating or updating a course.
type CourseInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Instructor  string    `json:"instructor"`
	StartsOn    time.Time `json:"starts_on"`
	EndsOn      time.Time `json:"ends_on"`
	MaxStudents int       `json:"max_students"`
}

// Enrollment statuses.
const (
	EnrollmentStatusEnrolled  = "enrolled"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
)

// Enrollment links a member to a course.
type Enrollment struct {
	ID         uuid.UUID `json:"id"`
	CourseID   uuid.UUID `json:"course_id"`
	MemberID   uuid.UUID `json:"member_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`

	MemberName string `json:"member_name,omitempty"`
}

// SundaySchoolClass is a recurring Sunday-school group.
type SundaySchoolClass struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Teacher   string    `json:"teacher,omitempty"`
	AgeGroup  string    `json:"age_group,omitempty"`
	Room      string    `json:"room,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SundaySchoolClassInput is the DTO for creating or updating a class.
type SundaySchoolClassInput struct {
	Name     string `json:"name"`
	Teacher  string `json:"teacher"`
	AgeGroup string `json:"age_group"`
	Room     string `json:"room"`
}

// Lesson is one dated session of a Sunday-school class.
type Lesson struct {
	ID         uuid.UUID `json:"id"`
	ClassID    uuid.UUID `json:"class_id"`
	LessonDate time.Time `json:"lesson_date"`
	Topic      string    `json:"topic,omitempty"`
}

// AttendanceRecord marks one person present or absent at a lesson.
// Exactly one of MemberID or VisitorName must be set: members are tracked
// by id, walk-in visitors by name only.
type AttendanceRecord struct {
	ID          uuid.UUID  `json:"id"`
	LessonID    uuid.UUID  `json:"lesson_id"`
	MemberID    *uuid.UUID `json:"member_id,omitempty"`
	VisitorName string     `json:"visitor_name,omitempty"`
	Present     bool       `json:"present"`
	RecordedAt  time.Time  `json:"recorded_at"`
}

// AttendanceInput is the DTO for recording attendance at a lesson.
type AttendanceInput struct {
	MemberID    *uuid.UUID `json:"member_id,omitempty"`
	VisitorName string     `json:"visitor_name,omitempty"`
	Present     bool       `json:"present"`
}
