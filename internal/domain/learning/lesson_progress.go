package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonProgress struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_enrollment_lesson,priority:1" json:"enrollment_id"`
	LessonID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_enrollment_lesson,priority:2;index" json:"lesson_id"`
	IsCompleted  bool       `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
