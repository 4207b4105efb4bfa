package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/domain/learning"
	"github.com/yungbote/neurobridge-certificates/internal/domain/user"
)

// Models lists every table this service reads or writes.
func Models() []any {
	return []any{
		// identity
		&user.User{},

		// curriculum + progress, owned by the learning service
		&learning.Course{},
		&learning.CourseModule{},
		&learning.Lesson{},
		&learning.Enrollment{},
		&learning.LessonProgress{},

		// ledger
		&certificates.LedgerEntry{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
