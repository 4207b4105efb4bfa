package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/apierr"
)

type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondErr writes err with the status its type implies. Untyped errors are
// reported as a bare 500 so internal detail never reaches the client.
func RespondErr(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	var certErr *domain.Error
	if errors.As(err, &certErr) && certErr != nil {
		if certErr.Retryable() {
			c.Header("Retry-After", strconv.Itoa(1))
		}
		c.JSON(StatusFor(certErr.Code), ErrorEnvelope{
			Error: APIError{
				Message: publicMessage(certErr),
				Code:    string(certErr.Code),
				Details: details(certErr),
			},
		})
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
}

// StatusFor maps a certificate error code to its HTTP status.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeIssuanceInProgress:
		return http.StatusConflict
	case domain.CodeIncompleteCourse, domain.CodeEmptyCurriculum, domain.CodeMissingLessons:
		return http.StatusUnprocessableEntity
	case domain.CodeStorageBucketMissing, domain.CodeStoragePermissionDenied:
		return http.StatusServiceUnavailable
	case domain.CodeStorageFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// operator-facing failures keep their message; the cause chain stays in logs
func publicMessage(e *domain.Error) string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func details(e *domain.Error) map[string]any {
	out := map[string]any{}
	switch e.Code {
	case domain.CodeIncompleteCourse:
		out["percentage"] = e.Percentage
	case domain.CodeMissingLessons:
		out["completed"] = e.Completed
		out["total"] = e.Total
	case domain.CodeIncompleteProfileData:
		out["fields"] = e.Fields
	case domain.CodeStorageBucketMissing, domain.CodeStoragePermissionDenied, domain.CodeStorageFailure:
		if e.Bucket != "" {
			out["bucket"] = e.Bucket
		}
		if e.Remediation != "" {
			out["remediation"] = e.Remediation
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
