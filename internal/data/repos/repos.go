package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/data/repos/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/data/repos/learning"
	"github.com/yungbote/neurobridge-certificates/internal/data/repos/user"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type EnrollmentRepo = learning.EnrollmentRepo
type CurriculumRepo = learning.CurriculumRepo

type CertificateLedgerRepo = certificates.LedgerRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, log)
}

func NewEnrollmentRepo(db *gorm.DB, log *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, log)
}

func NewCurriculumRepo(db *gorm.DB, log *logger.Logger) CurriculumRepo {
	return learning.NewCurriculumRepo(db, log)
}

func NewCertificateLedgerRepo(db *gorm.DB, log *logger.Logger) CertificateLedgerRepo {
	return certificates.NewLedgerRepo(db, log)
}
