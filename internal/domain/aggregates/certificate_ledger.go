package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
)

var CertificateLedgerAggregateContract = Contract{
	Name:             "Certificates.LedgerAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the one-row-per-enrollment ledger and the url/hash binding. Rows move forward only.",
}

// CertificateLedgerAggregate owns the certificate ledger.
//
// certificate_hash is computed inside the aggregate from certificate_url; no
// input accepts a hash. Lookups return (nil, nil) when no row matches.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type CertificateLedgerAggregate interface {
	Aggregate

	FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*certificates.LedgerEntry, error)
	FindByHash(ctx context.Context, hash string) (*certificates.LedgerEntry, error)

	// InsertPlaceholder creates the placeholder row for an enrollment, or
	// returns whatever row already exists for it.
	InsertPlaceholder(ctx context.Context, in InsertPlaceholderInput) (*certificates.LedgerEntry, error)

	// CommitURL moves a placeholder row to its real URL and returns the row as
	// stored, including the recomputed hash. A row that is no longer a
	// placeholder fails with CodeConflict.
	CommitURL(ctx context.Context, in CommitURLInput) (*certificates.LedgerEntry, error)

	// RecordRender notes which hash the stored artifact's QR encodes.
	RecordRender(ctx context.Context, in RecordRenderInput) (*certificates.LedgerEntry, error)
}

type InsertPlaceholderInput struct {
	UserID       uuid.UUID
	CourseID     uuid.UUID
	EnrollmentID uuid.UUID
	TemplateID   *string
}

type CommitURLInput struct {
	CertificateID  uuid.UUID
	CertificateURL string
	IssuedAt       time.Time
	Metadata       certificates.Metadata
}

type RecordRenderInput struct {
	CertificateID uuid.UUID
	RenderedHash  string
}
