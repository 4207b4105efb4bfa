package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/http/response"
	"github.com/yungbote/neurobridge-certificates/internal/modules/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/apierr"
	"github.com/yungbote/neurobridge-certificates/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type CertificateService interface {
	GenerateCertificate(ctx context.Context, enrollmentID, courseID, userID uuid.UUID) (certificates.IssueResult, error)
	VerifyCertificate(ctx context.Context, hash string) (certificates.VerificationResult, error)
}

type CertificateHandler struct {
	log          *logger.Logger
	svc          CertificateService
	issueTimeout time.Duration
}

func NewCertificateHandler(log *logger.Logger, svc CertificateService, issueTimeout time.Duration) *CertificateHandler {
	if issueTimeout <= 0 {
		issueTimeout = 60 * time.Second
	}
	return &CertificateHandler{
		log:          log.With("handler", "CertificateHandler"),
		svc:          svc,
		issueTimeout: issueTimeout,
	}
}

type generateCertificateRequest struct {
	CourseID string `json:"course_id"`
}

// POST /api/enrollments/:enrollmentId/certificate
// body: { "course_id": "..." }
func (h *CertificateHandler) Generate(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondErr(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing caller")))
		return
	}
	enrollmentID, err := uuid.Parse(c.Param("enrollmentId"))
	if err != nil {
		response.RespondErr(c, apierr.New(http.StatusBadRequest, string(domain.CodeInvalidArgument), errors.New("invalid enrollment id")))
		return
	}
	var req generateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.New(http.StatusBadRequest, string(domain.CodeInvalidArgument), errors.New("invalid request body")))
		return
	}
	courseID, err := uuid.Parse(strings.TrimSpace(req.CourseID))
	if err != nil {
		response.RespondErr(c, apierr.New(http.StatusBadRequest, string(domain.CodeInvalidArgument), errors.New("invalid course_id")))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.issueTimeout)
	defer cancel()

	res, err := h.svc.GenerateCertificate(ctx, enrollmentID, courseID, rd.UserID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			response.RespondErr(c, apierr.New(http.StatusGatewayTimeout, "timeout", errors.New("certificate issuance timed out")))
			return
		}
		h.logFailure(err, enrollmentID)
		_ = c.Error(err)
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /certificates/verify/:hash
func (h *CertificateHandler) Verify(c *gin.Context) {
	res, err := h.svc.VerifyCertificate(c.Request.Context(), c.Param("hash"))
	if err != nil {
		if domain.IsCode(err, domain.CodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"valid": false, "status": "not_found"})
			return
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *CertificateHandler) logFailure(err error, enrollmentID uuid.UUID) {
	code := domain.CodeOf(err)
	switch response.StatusFor(code) {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		h.log.Info("Certificate not issued", "enrollment_id", enrollmentID, "code", code)
	default:
		h.log.Error("Certificate issuance failed", "enrollment_id", enrollmentID, "code", code, "error", err)
	}
}
