package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description" json:"description"`
	IsPublished bool   `gorm:"column:is_published;not null;default:false;index" json:"is_published"`

	// Name of the certificate template to render; empty selects the default.
	CertificateTemplate string `gorm:"column:certificate_template" json:"certificate_template,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
