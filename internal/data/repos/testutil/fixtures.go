package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/domain/learning"
	"github.com/yungbote/neurobridge-certificates/internal/domain/user"
)

func SeedUser(tb testing.TB, tx *gorm.DB, u *user.User) *user.User {
	tb.Helper()
	if u.Email == "" {
		u.Email = uuid.NewString() + "@example.com"
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, tx *gorm.DB, instructorID uuid.UUID, title string) *learning.Course {
	tb.Helper()
	c := &learning.Course{InstructorID: instructorID, Title: title, IsPublished: true}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, tx *gorm.DB, courseID uuid.UUID, position int, published bool) *learning.CourseModule {
	tb.Helper()
	m := &learning.CourseModule{CourseID: courseID, Position: position, Title: "Module", IsPublished: published}
	if err := tx.Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, tx *gorm.DB, moduleID uuid.UUID, position int, published bool) *learning.Lesson {
	tb.Helper()
	l := &learning.Lesson{ModuleID: moduleID, Position: position, Title: "Lesson", IsPublished: published}
	if err := tx.Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedEnrollment(tb testing.TB, tx *gorm.DB, userID, courseID uuid.UUID, percentage float64) *learning.Enrollment {
	tb.Helper()
	e := &learning.Enrollment{UserID: userID, CourseID: courseID, Status: learning.EnrollmentStatusActive, OverallProgressPercentage: percentage}
	if err := tx.Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedProgress(tb testing.TB, tx *gorm.DB, enrollmentID, lessonID uuid.UUID, completed bool) *learning.LessonProgress {
	tb.Helper()
	p := &learning.LessonProgress{EnrollmentID: enrollmentID, LessonID: lessonID, IsCompleted: completed}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

// Scenario is a learner enrolled in a one-module course taught by an
// instructor with complete profile names.
type Scenario struct {
	Student    *user.User
	Instructor *user.User
	Course     *learning.Course
	Module     *learning.CourseModule
	Lessons    []*learning.Lesson
	Enrollment *learning.Enrollment
}

// SeedScenario creates a course with the given number of published lessons
// and marks the first completed of them done for the enrollment.
func SeedScenario(tb testing.TB, tx *gorm.DB, lessons, completed int, percentage float64) Scenario {
	tb.Helper()
	s := Scenario{}
	s.Instructor = SeedUser(tb, tx, &user.User{Username: "mlopez", DisplayName: "María López", Role: user.RoleInstructor})
	s.Student = SeedUser(tb, tx, &user.User{Username: "jperez", FirstName: "Juan", LastName: "Pérez", Role: user.RoleStudent})
	s.Course = SeedCourse(tb, tx, s.Instructor.ID, "Fundamentos de Go")
	s.Module = SeedModule(tb, tx, s.Course.ID, 1, true)
	for i := 0; i < lessons; i++ {
		s.Lessons = append(s.Lessons, SeedLesson(tb, tx, s.Module.ID, i+1, true))
	}
	s.Enrollment = SeedEnrollment(tb, tx, s.Student.ID, s.Course.ID, percentage)
	for i := 0; i < completed && i < len(s.Lessons); i++ {
		SeedProgress(tb, tx, s.Enrollment.ID, s.Lessons[i].ID, true)
	}
	return s
}
