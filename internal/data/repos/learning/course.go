package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/domain/learning"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type CourseRepo interface {
	GetByID(dbc dbctx.Context, courseID uuid.UUID) (*learning.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) GetByID(dbc dbctx.Context, courseID uuid.UUID) (*learning.Course, error) {
	if courseID == uuid.Nil {
		return nil, nil
	}
	var rows []*learning.Course
	if err := dbc.DB(r.db).Where("id = ?", courseID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
