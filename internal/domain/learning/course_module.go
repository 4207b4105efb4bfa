package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseModule struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index:idx_course_module_course_position,priority:1" json:"course_id"`
	Position    int       `gorm:"column:position;not null;index:idx_course_module_course_position,priority:2" json:"position"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	IsPublished bool      `gorm:"column:is_published;not null;default:false" json:"is_published"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseModule) TableName() string { return "course_module" }

func (m *CourseModule) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
