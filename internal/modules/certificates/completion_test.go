package certificates

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/data/repos"
	"github.com/yungbote/neurobridge-certificates/internal/data/repos/testutil"
	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
)

func newVerifier(t *testing.T, db *gorm.DB) *CompletionVerifier {
	t.Helper()
	log := testutil.Logger(t)
	return NewCompletionVerifier(CompletionVerifierDeps{
		Log:         log,
		Enrollments: repos.NewEnrollmentRepo(db, log),
		Curriculum:  repos.NewCurriculumRepo(db, log),
	})
}

func TestCompletionVerifierAcceptsFullCompletion(t *testing.T) {
	db := testutil.DB(t)
	s := testutil.SeedScenario(t, db, 3, 3, 100)
	if err := newVerifier(t, db).Verify(context.Background(), s.Enrollment.ID, s.Course.ID, s.Student.ID); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestCompletionVerifierRejectsPartialProgress(t *testing.T) {
	db := testutil.DB(t)
	s := testutil.SeedScenario(t, db, 2, 2, 99.5)

	err := newVerifier(t, db).Verify(context.Background(), s.Enrollment.ID, s.Course.ID, s.Student.ID)
	var certErr *domain.Error
	if !errors.As(err, &certErr) || certErr.Code != domain.CodeIncompleteCourse {
		t.Fatalf("want incomplete_course got=%v", err)
	}
	if certErr.Percentage != 99.5 {
		t.Fatalf("percentage: want=99.5 got=%v", certErr.Percentage)
	}
}

func TestCompletionVerifierScopesEnrollment(t *testing.T) {
	db := testutil.DB(t)
	s := testutil.SeedScenario(t, db, 1, 1, 100)
	v := newVerifier(t, db)

	cases := map[string][3]uuid.UUID{
		"unknown enrollment": {uuid.New(), s.Course.ID, s.Student.ID},
		"other learner":      {s.Enrollment.ID, s.Course.ID, s.Instructor.ID},
		"other course":       {s.Enrollment.ID, uuid.New(), s.Student.ID},
	}
	for name, ids := range cases {
		if err := v.Verify(context.Background(), ids[0], ids[1], ids[2]); !domain.IsCode(err, domain.CodeNotFound) {
			t.Fatalf("%s: want not_found got=%v", name, err)
		}
	}
}

func TestCompletionVerifierEmptyCurriculum(t *testing.T) {
	t.Run("no published modules", func(t *testing.T) {
		db := testutil.DB(t)
		s := testutil.SeedScenario(t, db, 0, 0, 100)
		if err := db.Model(s.Module).Update("is_published", false).Error; err != nil {
			t.Fatalf("unpublish module: %v", err)
		}
		err := newVerifier(t, db).Verify(context.Background(), s.Enrollment.ID, s.Course.ID, s.Student.ID)
		if !domain.IsCode(err, domain.CodeEmptyCurriculum) {
			t.Fatalf("want empty_curriculum got=%v", err)
		}
	})
	t.Run("no published lessons", func(t *testing.T) {
		db := testutil.DB(t)
		s := testutil.SeedScenario(t, db, 0, 0, 100)
		testutil.SeedLesson(t, db, s.Module.ID, 1, false)
		err := newVerifier(t, db).Verify(context.Background(), s.Enrollment.ID, s.Course.ID, s.Student.ID)
		if !domain.IsCode(err, domain.CodeEmptyCurriculum) {
			t.Fatalf("want empty_curriculum got=%v", err)
		}
	})
}

func TestCompletionVerifierIgnoresUnpublishedContent(t *testing.T) {
	db := testutil.DB(t)
	s := testutil.SeedScenario(t, db, 2, 2, 100)
	draft := testutil.SeedLesson(t, db, s.Module.ID, 3, false)
	hidden := testutil.SeedModule(t, db, s.Course.ID, 2, false)
	testutil.SeedLesson(t, db, hidden.ID, 1, true)
	testutil.SeedProgress(t, db, s.Enrollment.ID, draft.ID, true)

	if err := newVerifier(t, db).Verify(context.Background(), s.Enrollment.ID, s.Course.ID, s.Student.ID); err != nil {
		t.Fatalf("unpublished content must not count: %v", err)
	}
}

func TestCompletionVerifierCountsOnlyCompletedProgress(t *testing.T) {
	db := testutil.DB(t)
	s := testutil.SeedScenario(t, db, 3, 1, 100)
	testutil.SeedProgress(t, db, s.Enrollment.ID, s.Lessons[1].ID, false)

	err := newVerifier(t, db).Verify(context.Background(), s.Enrollment.ID, s.Course.ID, s.Student.ID)
	var certErr *domain.Error
	if !errors.As(err, &certErr) || certErr.Code != domain.CodeMissingLessons {
		t.Fatalf("want missing_lessons got=%v", err)
	}
	if certErr.Completed != 1 || certErr.Total != 3 {
		t.Fatalf("counts: want={1,3} got={%d,%d}", certErr.Completed, certErr.Total)
	}
}
