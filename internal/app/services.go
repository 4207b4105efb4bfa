package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/data/aggregates"
	domainagg "github.com/yungbote/neurobridge-certificates/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-certificates/internal/modules/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type Services struct {
	Ledger       domainagg.CertificateLedgerAggregate
	Templates    *certificates.TemplateRegistry
	Renderer     *certificates.PDFRenderer
	Certificates certificates.Usecases
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	ledger := aggregates.NewCertificateLedgerAggregate(aggregates.CertificateLedgerAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Ledger:   repos.Ledger,
		HashSalt: cfg.CertificateHashSalt,
	})

	templates, err := certificates.LoadTemplates(cfg.CertificateTemplatesPath)
	if err != nil {
		return Services{}, fmt.Errorf("load certificate templates: %w", err)
	}
	renderer, err := certificates.NewPDFRenderer(certificates.RendererConfig{
		VerifyBaseURL: cfg.CertificateVerifyBaseURL,
		Templates:     templates,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init certificate renderer: %w", err)
	}

	signatures := certificates.NewHTTPSignatureLoader(cfg.SignatureFetchTimeout)
	artifacts := certificates.NewBucketArtifactStore(certificates.BucketArtifactStoreDeps{
		Log:     log,
		Bucket:  clients.Bucket,
		Metrics: metrics,
	})

	usecases := certificates.New(certificates.UsecasesDeps{
		Log: log,
		Completion: certificates.NewCompletionVerifier(certificates.CompletionVerifierDeps{
			Log:         log,
			Enrollments: repos.Enrollment,
			Curriculum:  repos.Curriculum,
		}),
		Aggregator: certificates.NewDataAggregator(certificates.DataAggregatorDeps{
			Log:        log,
			Courses:    repos.Course,
			Users:      repos.User,
			Signatures: signatures,
		}),
		Coordinator: certificates.NewCoordinator(certificates.CoordinatorDeps{
			Log:       log,
			Ledger:    ledger,
			Renderer:  renderer,
			Artifacts: artifacts,
			Metrics:   metrics,
		}),
		Ledger:     ledger,
		Templates:  templates,
		Signatures: signatures,
		Locker:     clients.Locker,
		Metrics:    metrics,
	})

	return Services{
		Ledger:       ledger,
		Templates:    templates,
		Renderer:     renderer,
		Certificates: usecases,
	}, nil
}
