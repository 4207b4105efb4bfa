package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/domain/learning"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type EnrollmentRepo interface {
	// GetScoped returns the enrollment only when it belongs to userID and
	// courseID; (nil, nil) otherwise.
	GetScoped(dbc dbctx.Context, enrollmentID, userID, courseID uuid.UUID) (*learning.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) GetScoped(dbc dbctx.Context, enrollmentID, userID, courseID uuid.UUID) (*learning.Enrollment, error) {
	if enrollmentID == uuid.Nil || userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var rows []*learning.Enrollment
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ? AND course_id = ?", enrollmentID, userID, courseID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
