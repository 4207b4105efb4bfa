package certificates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PlaceholderScheme marks a ledger row whose artifact was never committed.
// No storage backend serves this scheme.
const PlaceholderScheme = "pending://"

// LedgerEntry is one row of the append-only certificate ledger. Rows are never
// deleted; certificate_url moves forward from a placeholder to a real URL and
// certificate_hash always follows it.
type LedgerEntry struct {
	CertificateID uuid.UUID `gorm:"column:certificate_id;type:uuid;primaryKey" json:"certificate_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID      uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	EnrollmentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_ledger_enrollment" json:"enrollment_id"`

	CertificateURL  string  `gorm:"column:certificate_url;not null" json:"certificate_url"`
	CertificateHash string  `gorm:"column:certificate_hash;size:64;not null;index:idx_certificate_ledger_hash" json:"certificate_hash"`
	TemplateID      *string `gorm:"column:template_id" json:"template_id,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	IssuedAt *time.Time     `gorm:"column:issued_at" json:"issued_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LedgerEntry) TableName() string { return "certificate_ledger" }

// Metadata is the snapshot of facts printed on the committed artifact.
type Metadata struct {
	StudentName    string    `json:"student_name,omitempty"`
	CourseTitle    string    `json:"course_title,omitempty"`
	InstructorName string    `json:"instructor_name,omitempty"`
	IssueDate      time.Time `json:"issue_date"`
	StorageKey     string    `json:"storage_key,omitempty"`
	SignatureURL   string    `json:"signature_url,omitempty"`
	// RenderedHash is the hash encoded in the QR of the stored artifact.
	RenderedHash string `json:"rendered_hash,omitempty"`
	QRStale      bool   `json:"qr_stale"`
}

func PlaceholderURL(userID, courseID, enrollmentID uuid.UUID) string {
	return fmt.Sprintf("%scertificates/%s/%s/%s", PlaceholderScheme, userID, courseID, enrollmentID)
}

func IsPlaceholderURL(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), PlaceholderScheme)
}

func (e *LedgerEntry) IsPlaceholder() bool {
	return e != nil && IsPlaceholderURL(e.CertificateURL)
}

func (e *LedgerEntry) DecodeMetadata() (Metadata, error) {
	var m Metadata
	if e == nil || len(e.Metadata) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(e.Metadata, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode certificate metadata: %w", err)
	}
	return m, nil
}

func EncodeMetadata(m Metadata) (datatypes.JSON, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode certificate metadata: %w", err)
	}
	return datatypes.JSON(b), nil
}
