package certificates

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type CoordinatorDeps struct {
	Log       *logger.Logger
	Ledger    LedgerStore
	Renderer  Renderer
	Artifacts ArtifactStore
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// Coordinator issues certificates with the two-pass hash bootstrap: the
// artifact embeds a hash that is derived from the artifact's own URL.
type Coordinator struct {
	log       *logger.Logger
	ledger    LedgerStore
	renderer  Renderer
	artifacts ArtifactStore
	metrics   *observability.Metrics
	now       func() time.Time
	tracer    trace.Tracer
}

func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		log:       log.With("service", "CertificateCoordinator"),
		ledger:    deps.Ledger,
		renderer:  deps.Renderer,
		artifacts: deps.Artifacts,
		metrics:   deps.Metrics,
		now:       now,
		tracer:    observability.Tracer(),
	}
}

// Issue returns the enrollment's certificate, creating it if needed. A
// committed row is returned as is. A placeholder row left by an earlier
// failure is picked up and finished.
func (c *Coordinator) Issue(ctx context.Context, enrollmentID, courseID, userID uuid.UUID, data CertificateData) (IssueResult, error) {
	ctx, span := c.tracer.Start(ctx, "certificates.issue", trace.WithAttributes(
		attribute.String("enrollment_id", enrollmentID.String()),
	))
	defer span.End()
	start := time.Now()

	res, outcome, err := c.issue(ctx, enrollmentID, courseID, userID, data)
	if err != nil {
		outcome = string(domain.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	c.metrics.ObserveCertificateIssue(outcome, time.Since(start))
	return res, err
}

func (c *Coordinator) issue(ctx context.Context, enrollmentID, courseID, userID uuid.UUID, data CertificateData) (IssueResult, string, error) {
	row, err := c.ledger.FindByEnrollment(ctx, enrollmentID)
	if err != nil {
		return IssueResult{}, "", domain.LedgerFailure("ledger.find_by_enrollment", err)
	}
	if row == nil {
		row, err = c.ledger.InsertPlaceholder(ctx, domainagg.InsertPlaceholderInput{
			UserID:       userID,
			CourseID:     courseID,
			EnrollmentID: enrollmentID,
			TemplateID:   templateIDPtr(data.TemplateID),
		})
		if err != nil {
			return IssueResult{}, "", domain.LedgerFailure("ledger.insert_placeholder", err)
		}
	} else if row.IsPlaceholder() {
		// the placeholder pinned the template; the course may have switched since
		if row.TemplateID != nil && *row.TemplateID != "" {
			data.TemplateID = *row.TemplateID
		}
		c.log.Info("Resuming uncommitted certificate", "enrollment_id", enrollmentID, "certificate_id", row.CertificateID, "template_id", data.TemplateID)
	}
	if row.UserID != userID || row.CourseID != courseID {
		return IssueResult{}, "", domain.InvalidArgument("certificate.issue", "enrollment is bound to a different learner or course")
	}
	if !row.IsPlaceholder() {
		return resultOf(row), "existing", nil
	}

	h0 := row.CertificateHash
	key := ArtifactKey(userID, courseID, c.now())
	url, err := c.renderAndStore(ctx, "1", data, h0, key)
	if err != nil {
		return IssueResult{}, "", err
	}

	committed, err := c.commit(ctx, row, url, key, data, h0)
	if err != nil {
		return IssueResult{}, "", err
	}
	if committed.CertificateURL != url {
		// lost the commit race; the winner's artifact is the certificate
		c.log.Warn("Certificate committed by a concurrent issuance, discarding own upload",
			"enrollment_id", enrollmentID,
			"certificate_id", committed.CertificateID,
			"orphaned_key", key,
		)
		return resultOf(committed), "existing", nil
	}

	h1 := committed.CertificateHash
	if h1 != h0 {
		if err := c.regenerate(ctx, committed, data, key); err != nil {
			regenErr := domain.HashRegenerationFailed(err)
			c.metrics.IncHashRegenerationFailed()
			c.log.Error("Certificate QR left stale after second render pass",
				"enrollment_id", enrollmentID,
				"certificate_id", committed.CertificateID,
				"key", key,
				"error", regenErr,
			)
		}
	}
	c.log.Info("Certificate issued", "enrollment_id", enrollmentID, "certificate_id", committed.CertificateID, "key", key)
	return resultOf(committed), "issued", nil
}

func (c *Coordinator) commit(ctx context.Context, row *domain.LedgerEntry, url, key string, data CertificateData, renderedHash string) (*domain.LedgerEntry, error) {
	ctx, span := c.tracer.Start(ctx, "certificates.commit_url")
	defer span.End()

	committed, err := c.ledger.CommitURL(ctx, domainagg.CommitURLInput{
		CertificateID:  row.CertificateID,
		CertificateURL: url,
		IssuedAt:       data.IssueDate,
		Metadata: domain.Metadata{
			StudentName:    data.StudentName,
			CourseTitle:    data.CourseTitle,
			InstructorName: data.InstructorName,
			IssueDate:      data.IssueDate,
			StorageKey:     key,
			SignatureURL:   data.InstructorSignatureURL,
			RenderedHash:   renderedHash,
		},
	})
	if err == nil {
		return committed, nil
	}
	if domainagg.IsCode(err, domainagg.CodeConflict) {
		winner, findErr := c.ledger.FindByEnrollment(ctx, row.EnrollmentID)
		if findErr == nil && winner != nil && !winner.IsPlaceholder() {
			return winner, nil
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "commit failed")
	return nil, domain.LedgerFailure("ledger.commit_url", err)
}

// regenerate re-renders a committed row with its stored hash, overwrites the
// artifact under key and records the render.
func (c *Coordinator) regenerate(ctx context.Context, row *domain.LedgerEntry, data CertificateData, key string) error {
	url, err := c.renderAndStore(ctx, "2", data, row.CertificateHash, key)
	if err != nil {
		return err
	}
	if url != row.CertificateURL {
		c.log.Warn("Artifact store returned a different url on overwrite", "key", key, "stored_url", row.CertificateURL, "url", url)
	}
	if _, err := c.ledger.RecordRender(ctx, domainagg.RecordRenderInput{
		CertificateID: row.CertificateID,
		RenderedHash:  row.CertificateHash,
	}); err != nil {
		// the artifact is correct; only the qr_stale marker lags
		c.log.Warn("Recording certificate render failed", "certificate_id", row.CertificateID, "error", err)
	}
	return nil
}

func (c *Coordinator) renderAndStore(ctx context.Context, pass string, data CertificateData, hash, key string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "certificates.render_pass", trace.WithAttributes(
		attribute.String("pass", pass),
		attribute.String("key", key),
	))
	defer span.End()

	pdf, err := c.renderer.Render(data, hash)
	if err != nil {
		c.metrics.IncCertificateRender(pass, "render_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return "", domain.RenderFailed(err)
	}
	url, err := c.artifacts.Put(ctx, key, pdf)
	if err != nil {
		c.metrics.IncCertificateRender(pass, "upload_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		var certErr *domain.Error
		if errors.As(err, &certErr) {
			return "", err
		}
		return "", domain.StorageFailure("", key, err)
	}
	c.metrics.IncCertificateRender(pass, "success")
	span.SetAttributes(attribute.Int("bytes", len(pdf)))
	return url, nil
}

func resultOf(row *domain.LedgerEntry) IssueResult {
	return IssueResult{
		CertificateID:   row.CertificateID,
		CertificateURL:  row.CertificateURL,
		CertificateHash: row.CertificateHash,
	}
}

func templateIDPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
