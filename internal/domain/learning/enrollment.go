package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment is owned by the learning service; this module only reads it.
type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:1" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:2;index" json:"course_id"`
	Status   string    `gorm:"column:status;not null;default:'active';index" json:"status"`

	OverallProgressPercentage float64    `gorm:"column:overall_progress_percentage;not null;default:0" json:"overall_progress_percentage"`
	CompletedAt               *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
