package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/domain/learning"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

// CurriculumRepo reads the published course -> module -> lesson graph and the
// per-enrollment lesson progress.
type CurriculumRepo interface {
	ListPublishedModules(dbc dbctx.Context, courseID uuid.UUID) ([]*learning.CourseModule, error)
	ListPublishedLessons(dbc dbctx.Context, moduleIDs []uuid.UUID) ([]*learning.Lesson, error)
	// ListCompletedLessonIDs returns the subset of lessonIDs with an
	// is_completed progress row for the enrollment.
	ListCompletedLessonIDs(dbc dbctx.Context, enrollmentID uuid.UUID, lessonIDs []uuid.UUID) ([]uuid.UUID, error)
}

type curriculumRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	return &curriculumRepo{db: db, log: baseLog.With("repo", "CurriculumRepo")}
}

func (r *curriculumRepo) ListPublishedModules(dbc dbctx.Context, courseID uuid.UUID) ([]*learning.CourseModule, error) {
	var results []*learning.CourseModule
	if courseID == uuid.Nil {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id = ? AND is_published = ?", courseID, true).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *curriculumRepo) ListPublishedLessons(dbc dbctx.Context, moduleIDs []uuid.UUID) ([]*learning.Lesson, error) {
	var results []*learning.Lesson
	if len(moduleIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("module_id IN ? AND is_published = ?", moduleIDs, true).
		Order("module_id, position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *curriculumRepo) ListCompletedLessonIDs(dbc dbctx.Context, enrollmentID uuid.UUID, lessonIDs []uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if enrollmentID == uuid.Nil || len(lessonIDs) == 0 {
		return ids, nil
	}
	if err := dbc.DB(r.db).
		Model(&learning.LessonProgress{}).
		Where("enrollment_id = ? AND lesson_id IN ? AND is_completed = ?", enrollmentID, lessonIDs, true).
		Pluck("lesson_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
