package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/apierr"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondErr(c, err)

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return rec, env
}

func TestRespondErrStatusTable(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		err  error
		want int
	}{
		{domain.InvalidArgument("op", "bad"), http.StatusBadRequest},
		{domain.NotFound("op", "enrollment"), http.StatusNotFound},
		{domain.IncompleteCourse(50), http.StatusUnprocessableEntity},
		{domain.EmptyCurriculum("none"), http.StatusUnprocessableEntity},
		{domain.MissingLessons(1, 2), http.StatusUnprocessableEntity},
		{domain.IncompleteProfileData([]string{"student_name"}), http.StatusInternalServerError},
		{domain.StorageBucketMissing("b", "k", boom), http.StatusServiceUnavailable},
		{domain.StoragePermissionDenied("b", "k", boom), http.StatusServiceUnavailable},
		{domain.StorageFailure("b", "k", boom), http.StatusBadGateway},
		{domain.RenderFailed(boom), http.StatusInternalServerError},
		{domain.LedgerFailure("op", boom), http.StatusInternalServerError},
		{domain.IssuanceInProgress("e"), http.StatusConflict},
	}
	for _, tc := range cases {
		rec, env := respond(t, tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%s: want=%d got=%d", domain.CodeOf(tc.err), tc.want, rec.Code)
		}
		if env.Error.Code != string(domain.CodeOf(tc.err)) {
			t.Fatalf("code: want=%s got=%s", domain.CodeOf(tc.err), env.Error.Code)
		}
	}
}

func TestRespondErrDetails(t *testing.T) {
	_, env := respond(t, domain.MissingLessons(4, 5))
	if env.Error.Details["completed"] != float64(4) || env.Error.Details["total"] != float64(5) {
		t.Fatalf("missing_lessons details: got=%v", env.Error.Details)
	}

	rec, env := respond(t, domain.StorageBucketMissing("certs", "k.pdf", errors.New("secret internals")))
	if env.Error.Details["bucket"] != "certs" || env.Error.Details["remediation"] == nil {
		t.Fatalf("bucket details: got=%v", env.Error.Details)
	}
	if rec.Header().Get("Retry-After") != "" {
		t.Fatalf("non-retryable error carries Retry-After")
	}

	rec, _ = respond(t, domain.IssuanceInProgress("e"))
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("issuance_in_progress: want Retry-After=1 got=%q", rec.Header().Get("Retry-After"))
	}
}

func TestRespondErrHidesUntypedErrors(t *testing.T) {
	rec, env := respond(t, errors.New("pq: password authentication failed"))
	if rec.Code != http.StatusInternalServerError || env.Error.Message != "internal error" {
		t.Fatalf("untyped: got status=%d body=%+v", rec.Code, env)
	}

	rec, env = respond(t, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing token")))
	if rec.Code != http.StatusUnauthorized || env.Error.Code != "unauthorized" {
		t.Fatalf("apierr: got status=%d body=%+v", rec.Code, env)
	}
}
