package certificates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type CompletionVerifierDeps struct {
	Log         *logger.Logger
	Enrollments EnrollmentReader
	Curriculum  CurriculumReader
}

// CompletionVerifier proves that an enrollment finished every published
// lesson of its course. Progress percentage alone is never enough.
type CompletionVerifier struct {
	log         *logger.Logger
	enrollments EnrollmentReader
	curriculum  CurriculumReader
}

func NewCompletionVerifier(deps CompletionVerifierDeps) *CompletionVerifier {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &CompletionVerifier{
		log:         log.With("service", "CompletionVerifier"),
		enrollments: deps.Enrollments,
		curriculum:  deps.Curriculum,
	}
}

// Verify returns nil when the enrollment is complete, otherwise a
// *certificates.Error explaining why not.
func (v *CompletionVerifier) Verify(ctx context.Context, enrollmentID, courseID, userID uuid.UUID) error {
	dbc := dbctx.New(ctx)

	enrollment, err := v.enrollments.GetScoped(dbc, enrollmentID, userID, courseID)
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if enrollment == nil {
		return domain.NotFound("completion.verify", "enrollment")
	}
	if enrollment.OverallProgressPercentage != 100 {
		return domain.IncompleteCourse(enrollment.OverallProgressPercentage)
	}

	modules, err := v.curriculum.ListPublishedModules(dbc, courseID)
	if err != nil {
		return fmt.Errorf("load published modules: %w", err)
	}
	if len(modules) == 0 {
		return domain.EmptyCurriculum("course has no published modules")
	}
	moduleIDs := make([]uuid.UUID, 0, len(modules))
	for _, m := range modules {
		moduleIDs = append(moduleIDs, m.ID)
	}

	lessons, err := v.curriculum.ListPublishedLessons(dbc, moduleIDs)
	if err != nil {
		return fmt.Errorf("load published lessons: %w", err)
	}
	if len(lessons) == 0 {
		return domain.EmptyCurriculum("published modules have no published lessons")
	}
	lessonIDs := make([]uuid.UUID, 0, len(lessons))
	published := make(map[uuid.UUID]struct{}, len(lessons))
	for _, l := range lessons {
		if _, dup := published[l.ID]; dup {
			continue
		}
		published[l.ID] = struct{}{}
		lessonIDs = append(lessonIDs, l.ID)
	}

	completedIDs, err := v.curriculum.ListCompletedLessonIDs(dbc, enrollmentID, lessonIDs)
	if err != nil {
		return fmt.Errorf("load lesson progress: %w", err)
	}
	completed := make(map[uuid.UUID]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		if _, ok := published[id]; ok {
			completed[id] = struct{}{}
		}
	}

	if len(completed) != len(published) {
		v.log.Debug("Completion proof failed",
			"enrollment_id", enrollmentID,
			"completed", len(completed),
			"total", len(published),
		)
		return domain.MissingLessons(len(completed), len(published))
	}
	return nil
}
