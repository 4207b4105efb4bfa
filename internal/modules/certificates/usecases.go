package certificates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type UsecasesDeps struct {
	Log *logger.Logger

	Completion  *CompletionVerifier
	Aggregator  *DataAggregator
	Coordinator *Coordinator
	Ledger      LedgerStore

	// Optional.
	Templates  *TemplateRegistry
	Signatures SignatureLoader
	Locker     Locker
	Metrics    *observability.Metrics
}

type Usecases struct {
	deps      UsecasesDeps
	coalescer *keyedCoalescer
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return Usecases{
		deps:      deps,
		coalescer: &keyedCoalescer{log: deps.Log.With("service", "CertificateCoalescer"), locker: deps.Locker},
	}
}

// GenerateCertificate proves completion, resolves the printable data and
// issues (or returns) the enrollment's certificate.
func (u Usecases) GenerateCertificate(ctx context.Context, enrollmentID, courseID, userID uuid.UUID) (IssueResult, error) {
	if enrollmentID == uuid.Nil || courseID == uuid.Nil || userID == uuid.Nil {
		return IssueResult{}, domain.InvalidArgument("certificate.generate", "enrollment, course and user ids are required")
	}
	callKey := fmt.Sprintf("issue:%s:%s:%s", enrollmentID, courseID, userID)
	return u.coalescer.Do(ctx, enrollmentID, callKey, func(ctx context.Context) (IssueResult, error) {
		if err := u.deps.Completion.Verify(ctx, enrollmentID, courseID, userID); err != nil {
			return IssueResult{}, err
		}
		data, err := u.deps.Aggregator.Resolve(ctx, courseID, userID)
		if err != nil {
			return IssueResult{}, err
		}
		if u.deps.Templates != nil {
			_, data.TemplateID = u.deps.Templates.Resolve(data.TemplateID)
		}
		return u.deps.Coordinator.Issue(ctx, enrollmentID, courseID, userID, data)
	})
}

type VerificationResult struct {
	Valid          bool       `json:"valid"`
	Status         string     `json:"status"`
	CertificateID  uuid.UUID  `json:"certificate_id"`
	CertificateURL string     `json:"certificate_url"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	StudentName    string     `json:"student_name"`
	CourseTitle    string     `json:"course_title"`
	InstructorName string     `json:"instructor_name"`
}

// VerifyCertificate looks a certificate up by the hash printed in its QR
// code. The names come from the snapshot taken at issuance.
func (u Usecases) VerifyCertificate(ctx context.Context, hash string) (VerificationResult, error) {
	const op = "certificate.verify"
	row, err := u.deps.Ledger.FindByHash(ctx, strings.TrimSpace(hash))
	switch {
	case domainagg.IsCode(err, domainagg.CodeValidation):
		u.deps.Metrics.IncCertificateVerify("invalid")
		return VerificationResult{}, domain.InvalidArgument(op, "certificate hash must be 64 hex characters")
	case err != nil:
		return VerificationResult{}, domain.LedgerFailure("ledger.find_by_hash", err)
	case row == nil || row.IsPlaceholder():
		u.deps.Metrics.IncCertificateVerify("not_found")
		return VerificationResult{}, domain.NotFound(op, "certificate")
	}
	meta, err := row.DecodeMetadata()
	if err != nil {
		return VerificationResult{}, domain.LedgerFailure("ledger.decode_metadata", err)
	}
	u.deps.Metrics.IncCertificateVerify("valid")
	return VerificationResult{
		Valid:          true,
		Status:         "valid",
		CertificateID:  row.CertificateID,
		CertificateURL: row.CertificateURL,
		IssuedAt:       row.IssuedAt,
		StudentName:    meta.StudentName,
		CourseTitle:    meta.CourseTitle,
		InstructorName: meta.InstructorName,
	}, nil
}

// ReissueQR re-renders a committed certificate whose QR encodes an outdated
// hash and overwrites the stored artifact. URL and hash never change. Unless
// force is set, a certificate whose QR is current is left alone.
func (u Usecases) ReissueQR(ctx context.Context, enrollmentID uuid.UUID, force bool) (IssueResult, error) {
	const op = "certificate.reissue_qr"
	if enrollmentID == uuid.Nil {
		return IssueResult{}, domain.InvalidArgument(op, "enrollment id is required")
	}
	callKey := fmt.Sprintf("reissue:%s:%t", enrollmentID, force)
	return u.coalescer.Do(ctx, enrollmentID, callKey, func(ctx context.Context) (IssueResult, error) {
		row, err := u.deps.Ledger.FindByEnrollment(ctx, enrollmentID)
		if err != nil {
			return IssueResult{}, domain.LedgerFailure("ledger.find_by_enrollment", err)
		}
		if row == nil {
			return IssueResult{}, domain.NotFound(op, "certificate")
		}
		if row.IsPlaceholder() {
			return IssueResult{}, domain.InvalidArgument(op, "certificate was never committed; issue it instead")
		}
		meta, err := row.DecodeMetadata()
		if err != nil {
			return IssueResult{}, domain.LedgerFailure("ledger.decode_metadata", err)
		}
		if !meta.QRStale && !force {
			u.deps.Log.Info("Certificate QR already current", "enrollment_id", enrollmentID)
			return resultOf(row), nil
		}
		if meta.StorageKey == "" {
			return IssueResult{}, domain.InvalidArgument(op, "no storage key recorded for certificate")
		}

		data := CertificateData{
			StudentName:            meta.StudentName,
			CourseTitle:            meta.CourseTitle,
			InstructorName:         meta.InstructorName,
			InstructorSignatureURL: meta.SignatureURL,
			IssueDate:              meta.IssueDate,
		}
		if row.TemplateID != nil {
			data.TemplateID = *row.TemplateID
		}
		if data.IssueDate.IsZero() && row.IssuedAt != nil {
			data.IssueDate = *row.IssuedAt
		}
		if data.InstructorSignatureURL != "" && u.deps.Signatures != nil {
			if sig, err := u.deps.Signatures.Load(ctx, data.InstructorSignatureURL); err == nil {
				data.InstructorSignature = sig
			} else {
				u.deps.Log.Warn("Instructor signature unavailable, using typeset line", "enrollment_id", enrollmentID, "error", err)
			}
		}
		if err := u.deps.Coordinator.regenerate(ctx, row, data, meta.StorageKey); err != nil {
			return IssueResult{}, err
		}
		u.deps.Log.Info("Certificate QR reissued", "enrollment_id", enrollmentID, "certificate_id", row.CertificateID)
		return resultOf(row), nil
	})
}
