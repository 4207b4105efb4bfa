package app

import (
	httpH "github.com/yungbote/neurobridge-certificates/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-certificates/internal/http/middleware"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Certificate *httpH.CertificateHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(metrics),
		Certificate: httpH.NewCertificateHandler(log, services.Certificates, cfg.CertificateIssueTimeout),
	}
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey)}
}
