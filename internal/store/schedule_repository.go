/**
 * @description
 * Queries for the calendar-style modules: events, courses with
 * enrollments, and Sunday-school classes, lessons and attendance.
 * Enrollment respects the course's max_students under a row lock, the
 * same way circulation guards the copy pool.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

// ── Events ──────────────────────────────────────────────────────────────

const eventColumns = `id, tenant_id, title, description, location, image_url, starts_at, ends_at, capacity, created_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.TenantID, &e.Title, &e.Description, &e.Location,
		&e.ImageURL, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts an event.
func (r *Repository) CreateEvent(ctx context.Context, e *domain.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, tenant_id, title, description, location, image_url, starts_at, ends_at, capacity, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TenantID, e.Title, e.Description, e.Location, e.ImageURL,
		e.StartsAt, e.EndsAt, e.Capacity, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns one event scoped to the tenant.
func (r *Repository) GetEvent(ctx context.Context, tenantID, id uuid.UUID) (*domain.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListEvents returns the tenant's events, soonest first.
func (r *Repository) ListEvents(ctx context.Context, tenantID uuid.UUID) ([]domain.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE tenant_id = $1 ORDER BY starts_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpdateEvent overwrites the mutable fields of an event.
func (r *Repository) UpdateEvent(ctx context.Context, tenantID, id uuid.UUID, in domain.EventInput) (*domain.Event, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE events
         SET title = $3, description = $4, location = $5, image_url = $6, starts_at = $7, ends_at = $8, capacity = $9
         WHERE id = $1 AND tenant_id = $2
         RETURNING `+eventColumns,
		id, tenantID, in.Title, in.Description, in.Location, in.ImageURL, in.StartsAt, in.EndsAt, in.Capacity,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// DeleteEvent removes an event.
func (r *Repository) DeleteEvent(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Courses ─────────────────────────────────────────────────────────────

const courseColumns = `id, tenant_id, title, description, instructor, starts_on, ends_on, max_students, created_at`

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var c domain.Course
	err := row.Scan(&c.ID, &c.TenantID, &c.Title, &c.Description, &c.Instructor,
		&c.StartsOn, &c.EndsOn, &c.MaxStudents, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCourse inserts a course.
func (r *Repository) CreateCourse(ctx context.Context, c *domain.Course) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO courses (id, tenant_id, title, description, instructor, starts_on, ends_on, max_students, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.TenantID, c.Title, c.Description, c.Instructor, c.StartsOn, c.EndsOn, c.MaxStudents, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// GetCourse returns one course scoped to the tenant.
func (r *Repository) GetCourse(ctx context.Context, tenantID, id uuid.UUID) (*domain.Course, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// ListCourses returns the tenant's courses, soonest first.
func (r *Repository) ListCourses(ctx context.Context, tenantID uuid.UUID) ([]domain.Course, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE tenant_id = $1 ORDER BY starts_on`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// UpdateCourse overwrites the mutable fields of a course.
func (r *Repository) UpdateCourse(ctx context.Context, tenantID, id uuid.UUID, in domain.CourseInput) (*domain.Course, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE courses
         SET title = $3, description = $4, instructor = $5, starts_on = $6, ends_on = $7, max_students = $8
         WHERE id = $1 AND tenant_id = $2
         RETURNING `+courseColumns,
		id, tenantID, in.Title, in.Description, in.Instructor, in.StartsOn, in.EndsOn, in.MaxStudents,
	)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	return c, nil
}

// DeleteCourse removes a course and its enrollments cascade in schema.
func (r *Repository) DeleteCourse(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnrollMember adds a member to a course. The course row is locked so
// the max_students check and the insert are atomic with respect to
// concurrent enrollments.
func (r *Repository) EnrollMember(ctx context.Context, e *domain.Enrollment, tenantID uuid.UUID) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		var maxStudents, enrolled int
		err := tx.QueryRow(ctx,
			`SELECT max_students FROM courses WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
			e.CourseID, tenantID,
		).Scan(&maxStudents)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock course: %w", err)
		}

		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2`,
			e.CourseID, domain.EnrollmentStatusEnrolled,
		).Scan(&enrolled); err != nil {
			return fmt.Errorf("count enrollments: %w", err)
		}
		if maxStudents > 0 && enrolled >= maxStudents {
			return ErrCourseFull
		}

		var dup int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND member_id = $2 AND status = $3`,
			e.CourseID, e.MemberID, domain.EnrollmentStatusEnrolled,
		).Scan(&dup); err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if dup > 0 {
			return ErrAlreadyEnrolled
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO enrollments (id, course_id, member_id, status, enrolled_at)
             VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.CourseID, e.MemberID, e.Status, e.EnrolledAt,
		)
		if err != nil {
			return fmt.Errorf("insert enrollment: %w", err)
		}
		return nil
	})
}

// UpdateEnrollmentStatus moves an enrollment to completed or dropped.
func (r *Repository) UpdateEnrollmentStatus(ctx context.Context, courseID, enrollmentID uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE enrollments SET status = $3 WHERE id = $1 AND course_id = $2`,
		enrollmentID, courseID, status,
	)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEnrollments returns a course's enrollments with member names.
func (r *Repository) ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]domain.Enrollment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.course_id, e.member_id, e.status, e.enrolled_at, m.name
         FROM enrollments e
         JOIN members m ON m.id = e.member_id
         WHERE e.course_id = $1
         ORDER BY e.enrolled_at`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.MemberID, &e.Status, &e.EnrolledAt, &e.MemberName); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// ── Sunday school ───────────────────────────────────────────────────────

// CreateClass inserts a Sunday-school class.
func (r *Repository) CreateClass(ctx context.Context, c *domain.SundaySchoolClass) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sunday_school_classes (id, tenant_id, name, teacher, age_group, room, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.TenantID, c.Name, c.Teacher, c.AgeGroup, c.Room, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

// GetClass returns one class scoped to the tenant.
func (r *Repository) GetClass(ctx context.Context, tenantID, id uuid.UUID) (*domain.SundaySchoolClass, error) {
	var c domain.SundaySchoolClass
	err := r.db.QueryRow(ctx,
		`SELECT id, tenant_id, name, teacher, age_group, room, created_at
         FROM sunday_school_classes WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Teacher, &c.AgeGroup, &c.Room, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	return &c, nil
}

// ListClasses returns the tenant's classes ordered by name.
func (r *Repository) ListClasses(ctx context.Context, tenantID uuid.UUID) ([]domain.SundaySchoolClass, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, tenant_id, name, teacher, age_group, room, created_at
         FROM sunday_school_classes WHERE tenant_id = $1 ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []domain.SundaySchoolClass
	for rows.Next() {
		var c domain.SundaySchoolClass
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Teacher, &c.AgeGroup, &c.Room, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// UpdateClass overwrites the mutable fields of a class.
func (r *Repository) UpdateClass(ctx context.Context, tenantID, id uuid.UUID, in domain.SundaySchoolClassInput) (*domain.SundaySchoolClass, error) {
	var c domain.SundaySchoolClass
	err := r.db.QueryRow(ctx,
		`UPDATE sunday_school_classes
         SET name = $3, teacher = $4, age_group = $5, room = $6
         WHERE id = $1 AND tenant_id = $2
         RETURNING id, tenant_id, name, teacher, age_group, room, created_at`,
		id, tenantID, in.Name, in.Teacher, in.AgeGroup, in.Room,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Teacher, &c.AgeGroup, &c.Room, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update class: %w", err)
	}
	return &c, nil
}

// DeleteClass removes a class.
func (r *Repository) DeleteClass(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM sunday_school_classes WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateLesson inserts a dated lesson for a class.
func (r *Repository) CreateLesson(ctx context.Context, l *domain.Lesson) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sunday_school_lessons (id, class_id, lesson_date, topic)
         VALUES ($1, $2, $3, $4)`,
		l.ID, l.ClassID, l.LessonDate, l.Topic,
	)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	return nil
}

// GetLesson returns one lesson, scoped to the tenant through its class.
func (r *Repository) GetLesson(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lesson, error) {
	var l domain.Lesson
	err := r.db.QueryRow(ctx,
		`SELECT l.id, l.class_id, l.lesson_date, l.topic
         FROM sunday_school_lessons l
         JOIN sunday_school_classes c ON c.id = l.class_id
         WHERE l.id = $1 AND c.tenant_id = $2`,
		id, tenantID,
	).Scan(&l.ID, &l.ClassID, &l.LessonDate, &l.Topic)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &l, nil
}

// ListLessons returns a class's lessons, newest first.
func (r *Repository) ListLessons(ctx context.Context, classID uuid.UUID) ([]domain.Lesson, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, class_id, lesson_date, topic
         FROM sunday_school_lessons WHERE class_id = $1 ORDER BY lesson_date DESC`,
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		var l domain.Lesson
		if err := rows.Scan(&l.ID, &l.ClassID, &l.LessonDate, &l.Topic); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// RecordAttendance inserts one attendance record for a lesson.
func (r *Repository) RecordAttendance(ctx context.Context, a *domain.AttendanceRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sunday_school_attendance (id, lesson_id, member_id, visitor_name, present, recorded_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.LessonID, a.MemberID, a.VisitorName, a.Present, a.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// ListAttendance returns all attendance records for a lesson.
func (r *Repository) ListAttendance(ctx context.Context, lessonID uuid.UUID) ([]domain.AttendanceRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, lesson_id, member_id, visitor_name, present, recorded_at
         FROM sunday_school_attendance WHERE lesson_id = $1 ORDER BY recorded_at`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var records []domain.AttendanceRecord
	for rows.Next() {
		var a domain.AttendanceRecord
		if err := rows.Scan(&a.ID, &a.LessonID, &a.MemberID, &a.VisitorName, &a.Present, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
