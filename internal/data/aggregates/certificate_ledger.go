package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/neurobridge-certificates/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
)

const certificateLedgerTable = "certificate_ledger"

type CertificateLedgerAggregateDeps struct {
	Base   BaseDeps
	Ledger repos.CertificateLedgerRepo

	// HashSalt is mixed into every certificate hash. Changing it orphans the
	// hashes of every issued certificate.
	HashSalt string
	Now      func() time.Time
}

type certificateLedgerAggregate struct {
	deps   CertificateLedgerAggregateDeps
	hasher certificateURLHasher
}

func NewCertificateLedgerAggregate(deps CertificateLedgerAggregateDeps) domainagg.CertificateLedgerAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Ledger == nil {
		deps.Ledger = repos.NewCertificateLedgerRepo(deps.Base.DB, deps.Base.Log)
	}
	return &certificateLedgerAggregate{deps: deps, hasher: certificateURLHasher{salt: deps.HashSalt}}
}

func (a *certificateLedgerAggregate) Contract() domainagg.Contract {
	return domainagg.CertificateLedgerAggregateContract
}

func (a *certificateLedgerAggregate) FindByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*certificates.LedgerEntry, error) {
	const op = "Certificates.Ledger.FindByEnrollment"
	var out *certificates.LedgerEntry
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Ledger.GetByEnrollmentID(dbc, enrollmentID)
		out = row
		return err
	})
	return out, err
}

func (a *certificateLedgerAggregate) FindByHash(ctx context.Context, hash string) (*certificates.LedgerEntry, error) {
	const op = "Certificates.Ledger.FindByHash"
	normalized, ok := NormalizeCertificateHash(hash)
	if !ok {
		return nil, MapError(op, ValidationError("certificate hash must be 64 hex characters"))
	}
	var out *certificates.LedgerEntry
	err := executeRead(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Ledger.GetByHash(dbc, normalized)
		out = row
		return err
	})
	return out, err
}

func (a *certificateLedgerAggregate) InsertPlaceholder(ctx context.Context, in domainagg.InsertPlaceholderInput) (*certificates.LedgerEntry, error) {
	const op = "Certificates.Ledger.InsertPlaceholder"
	if in.UserID == uuid.Nil || in.CourseID == uuid.Nil || in.EnrollmentID == uuid.Nil {
		return nil, MapError(op, ValidationError("user, course and enrollment ids are required"))
	}
	var out *certificates.LedgerEntry
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		placeholderURL := certificates.PlaceholderURL(in.UserID, in.CourseID, in.EnrollmentID)
		now := a.deps.Now().UTC()
		row := &certificates.LedgerEntry{
			CertificateID:   uuid.New(),
			UserID:          in.UserID,
			CourseID:        in.CourseID,
			EnrollmentID:    in.EnrollmentID,
			CertificateURL:  placeholderURL,
			CertificateHash: a.hasher.Hash(placeholderURL),
			TemplateID:      in.TemplateID,
			Metadata:        datatypes.JSON([]byte(`{}`)),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		inserted, err := a.deps.Ledger.CreateIfAbsent(dbc, row)
		if err != nil {
			return err
		}
		// a concurrent caller may have won the insert; converge on its row
		existing, err := a.deps.Ledger.GetByEnrollmentID(dbc, in.EnrollmentID)
		if err != nil {
			return err
		}
		if existing == nil {
			return InvariantError("placeholder insert left no row for enrollment")
		}
		if !inserted && (existing.UserID != in.UserID || existing.CourseID != in.CourseID) {
			return ConflictError("enrollment already bound to a different learner or course")
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *certificateLedgerAggregate) CommitURL(ctx context.Context, in domainagg.CommitURLInput) (*certificates.LedgerEntry, error) {
	const op = "Certificates.Ledger.CommitURL"
	certificateURL := strings.TrimSpace(in.CertificateURL)
	switch {
	case in.CertificateID == uuid.Nil:
		return nil, MapError(op, ValidationError("certificate id is required"))
	case certificateURL == "":
		return nil, MapError(op, ValidationError("certificate url is required"))
	case certificates.IsPlaceholderURL(certificateURL):
		return nil, MapError(op, ValidationError("certificate url must not be a placeholder"))
	}

	var out *certificates.LedgerEntry
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Ledger.GetByID(dbc, in.CertificateID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "certificate ledger row not found", nil)
		}
		if !current.IsPlaceholder() {
			return ConflictError("certificate already committed")
		}

		hash := a.hasher.Hash(certificateURL)
		meta := in.Metadata
		meta.QRStale = meta.RenderedHash != hash
		metaJSON, err := certificates.EncodeMetadata(meta)
		if err != nil {
			return ValidationError(err.Error())
		}
		issuedAt := in.IssuedAt.UTC()
		if in.IssuedAt.IsZero() {
			issuedAt = a.deps.Now().UTC()
		}

		ok, err := a.deps.Base.CASGuard.UpdateIf(dbc, certificateLedgerTable, "certificate_id", in.CertificateID,
			"certificate_url LIKE ?", []any{certificates.PlaceholderScheme + "%"},
			map[string]any{
				"certificate_url":  certificateURL,
				"certificate_hash": hash,
				"metadata":         metaJSON,
				"issued_at":        issuedAt,
				"updated_at":       a.deps.Now().UTC(),
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "certificate already committed"); err != nil {
			return err
		}

		// return what the row holds now, not what was sent
		out, err = a.deps.Ledger.GetByID(dbc, in.CertificateID)
		if err != nil {
			return err
		}
		if out == nil {
			return InvariantError("committed row vanished")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *certificateLedgerAggregate) RecordRender(ctx context.Context, in domainagg.RecordRenderInput) (*certificates.LedgerEntry, error) {
	const op = "Certificates.Ledger.RecordRender"
	renderedHash, ok := NormalizeCertificateHash(in.RenderedHash)
	if in.CertificateID == uuid.Nil || !ok {
		return nil, MapError(op, ValidationError("certificate id and a 64 hex rendered hash are required"))
	}

	var out *certificates.LedgerEntry
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Ledger.GetByID(dbc, in.CertificateID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "certificate ledger row not found", nil)
		}
		if current.IsPlaceholder() {
			return ValidationError("cannot record a render for an uncommitted certificate")
		}
		meta, err := current.DecodeMetadata()
		if err != nil {
			return InvariantError(err.Error())
		}
		meta.RenderedHash = renderedHash
		meta.QRStale = renderedHash != current.CertificateHash
		metaJSON, err := certificates.EncodeMetadata(meta)
		if err != nil {
			return ValidationError(err.Error())
		}

		ok, err := a.deps.Base.CASGuard.UpdateIf(dbc, certificateLedgerTable, "certificate_id", in.CertificateID,
			"certificate_hash = ?", []any{current.CertificateHash},
			map[string]any{
				"metadata":   metaJSON,
				"updated_at": a.deps.Now().UTC(),
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "certificate hash changed while recording render"); err != nil {
			return err
		}
		out, err = a.deps.Ledger.GetByID(dbc, in.CertificateID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
