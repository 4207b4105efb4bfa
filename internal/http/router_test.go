package http

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpH "github.com/yungbote/neurobridge-certificates/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-certificates/internal/http/middleware"
	"github.com/yungbote/neurobridge-certificates/internal/modules/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type stubCertificates struct{ generated int }

func (s *stubCertificates) GenerateCertificate(ctx context.Context, enrollmentID, courseID, userID uuid.UUID) (certificates.IssueResult, error) {
	s.generated++
	return certificates.IssueResult{}, nil
}

func (s *stubCertificates) VerifyCertificate(ctx context.Context, hash string) (certificates.VerificationResult, error) {
	return certificates.VerificationResult{Valid: true, Status: "valid"}, nil
}

func newTestRouter(svc *stubCertificates, metrics *observability.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	return NewRouter(RouterConfig{
		Log:                log,
		Metrics:            metrics,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, "secret"),
		CertificateHandler: httpH.NewCertificateHandler(log, svc, 0),
		HealthHandler:      httpH.NewHealthHandler(metrics),
	})
}

func TestRouterProtectsIssuance(t *testing.T) {
	svc := &stubCertificates{}
	r := newTestRouter(svc, nil)

	req := httptest.NewRequest(nethttp.MethodPost, "/api/enrollments/"+uuid.NewString()+"/certificate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusUnauthorized || svc.generated != 0 {
		t.Fatalf("unauthenticated issuance: status=%d generated=%d", rec.Code, svc.generated)
	}
}

func TestRouterPublicRoutes(t *testing.T) {
	r := newTestRouter(&stubCertificates{}, observability.New())

	for path, want := range map[string]int{
		"/healthcheck": nethttp.StatusOK,
		"/metrics":     nethttp.StatusOK,
		"/certificates/verify/" + strings.Repeat("c", 64): nethttp.StatusOK,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: want=%d got=%d", path, want, rec.Code)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: missing X-Request-Id", path)
		}
	}
}

func TestRouterOmitsMetricsWhenDisabled(t *testing.T) {
	r := newTestRouter(&stubCertificates{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("/metrics without metrics: want=404 got=%d", rec.Code)
	}
}
