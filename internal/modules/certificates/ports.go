package certificates

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/domain/learning"
	"github.com/yungbote/neurobridge-certificates/internal/domain/user"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
)

// CertificateData is everything printed on a certificate except the hash.
type CertificateData struct {
	StudentName    string
	CourseTitle    string
	InstructorName string

	InstructorSignatureURL string
	// InstructorSignature holds PNG or JPEG bytes. Empty renders a typeset
	// signature line instead.
	InstructorSignature []byte

	IssueDate  time.Time
	TemplateID string
}

type IssueResult struct {
	CertificateID   uuid.UUID `json:"certificateId"`
	CertificateURL  string    `json:"certificateUrl"`
	CertificateHash string    `json:"certificateHash"`
}

// LedgerStore is the only way this module touches the ledger. Rows are never
// deleted and no method accepts a hash to store.
type LedgerStore interface {
	FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*domain.LedgerEntry, error)
	FindByHash(ctx context.Context, hash string) (*domain.LedgerEntry, error)
	InsertPlaceholder(ctx context.Context, in domainagg.InsertPlaceholderInput) (*domain.LedgerEntry, error)
	CommitURL(ctx context.Context, in domainagg.CommitURLInput) (*domain.LedgerEntry, error)
	RecordRender(ctx context.Context, in domainagg.RecordRenderInput) (*domain.LedgerEntry, error)
}

// ArtifactStore writes artifacts under a caller-chosen key. Put overwrites and
// the returned URL is stable for the key.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Renderer must be pure: equal inputs give equal bytes.
type Renderer interface {
	Render(data CertificateData, hash string) ([]byte, error)
}

type EnrollmentReader interface {
	GetScoped(dbc dbctx.Context, enrollmentID, userID, courseID uuid.UUID) (*learning.Enrollment, error)
}

type CurriculumReader interface {
	ListPublishedModules(dbc dbctx.Context, courseID uuid.UUID) ([]*learning.CourseModule, error)
	ListPublishedLessons(dbc dbctx.Context, moduleIDs []uuid.UUID) ([]*learning.Lesson, error)
	ListCompletedLessonIDs(dbc dbctx.Context, enrollmentID uuid.UUID, lessonIDs []uuid.UUID) ([]uuid.UUID, error)
}

type CourseReader interface {
	GetByID(dbc dbctx.Context, courseID uuid.UUID) (*learning.Course, error)
}

type UserReader interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*user.User, error)
}

// SignatureLoader fetches an instructor's signature image.
type SignatureLoader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// Locker serialises issuance for one enrollment across replicas.
type Locker interface {
	Acquire(ctx context.Context, name string) (Unlocker, error)
}

type Unlocker interface {
	Release(ctx context.Context) error
}
