package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/data/repos"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type Repos struct {
	User       repos.UserRepo
	Course     repos.CourseRepo
	Enrollment repos.EnrollmentRepo
	Curriculum repos.CurriculumRepo
	Ledger     repos.CertificateLedgerRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		Course:     repos.NewCourseRepo(db, log),
		Enrollment: repos.NewEnrollmentRepo(db, log),
		Curriculum: repos.NewCurriculumRepo(db, log),
		Ledger:     repos.NewCertificateLedgerRepo(db, log),
	}
}
