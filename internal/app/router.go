package app

import (
	apphttp "github.com/yungbote/neurobridge-certificates/internal/http"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.ServiceName,
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthMiddleware:     middleware.Auth,
		CertificateHandler: handlers.Certificate,
		HealthHandler:      handlers.Health,
	})
}
