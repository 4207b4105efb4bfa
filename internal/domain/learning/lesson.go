package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lesson struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Position    int       `gorm:"column:position;not null" json:"position"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	IsPublished bool      `gorm:"column:is_published;not null;default:false" json:"is_published"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
