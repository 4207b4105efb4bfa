package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-certificates/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-certificates/internal/http/middleware"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware     *httpMW.AuthMiddleware
	CertificateHandler *httpH.CertificateHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		if cfg.Metrics != nil {
			r.GET("/metrics", cfg.HealthHandler.Metrics)
		}
	}

	// Verification (public, linked from the QR code)
	if cfg.CertificateHandler != nil {
		r.GET("/certificates/verify/:hash", cfg.CertificateHandler.Verify)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Certificates
		if cfg.CertificateHandler != nil {
			protected.POST("/enrollments/:enrollmentId/certificate", cfg.CertificateHandler.Generate)
		}
	}

	return r
}
