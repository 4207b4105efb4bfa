package certificates

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound                ErrorCode = "not_found"
	CodeIncompleteCourse        ErrorCode = "incomplete_course"
	CodeEmptyCurriculum         ErrorCode = "empty_curriculum"
	CodeMissingLessons          ErrorCode = "missing_lessons"
	CodeIncompleteProfileData   ErrorCode = "incomplete_profile_data"
	CodeStorageBucketMissing    ErrorCode = "storage_bucket_missing"
	CodeStoragePermissionDenied ErrorCode = "storage_permission_denied"
	CodeStorageFailure          ErrorCode = "storage_failure"
	CodeRenderFailed            ErrorCode = "render_failed"
	CodeLedgerFailure           ErrorCode = "ledger_failure"
	CodeIssuanceInProgress      ErrorCode = "issuance_in_progress"
	CodeHashRegenerationFailed  ErrorCode = "hash_regeneration_failed"
	CodeInvalidArgument         ErrorCode = "invalid_argument"
)

// Error is the single failure type of the issuance pipeline. Only the detail
// fields relevant to Code are set.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error

	Percentage float64
	Completed  int
	Total      int
	Fields     []string

	Bucket      string
	Key         string
	Remediation string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Code))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the same call may succeed later without any data
// changing.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case CodeIssuanceInProgress, CodeStorageFailure:
		return true
	default:
		return false
	}
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) || e == nil {
		return ""
	}
	return e.Code
}

func NotFound(op, what string) *Error {
	return &Error{Code: CodeNotFound, Op: op, Message: what + " not found"}
}

func IncompleteCourse(percentage float64) *Error {
	return &Error{
		Code:       CodeIncompleteCourse,
		Op:         "completion.verify",
		Message:    fmt.Sprintf("course progress is %.2f%%, 100%% required", percentage),
		Percentage: percentage,
	}
}

func EmptyCurriculum(message string) *Error {
	return &Error{Code: CodeEmptyCurriculum, Op: "completion.verify", Message: message}
}

func MissingLessons(completed, total int) *Error {
	return &Error{
		Code:      CodeMissingLessons,
		Op:        "completion.verify",
		Message:   fmt.Sprintf("%d of %d published lessons completed", completed, total),
		Completed: completed,
		Total:     total,
	}
}

func IncompleteProfileData(fields []string) *Error {
	return &Error{
		Code:    CodeIncompleteProfileData,
		Op:      "certificate.resolve",
		Message: "profile data resolves to placeholder values: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

func StorageBucketMissing(bucket, key string, cause error) *Error {
	return &Error{
		Code:        CodeStorageBucketMissing,
		Op:          "artifact.put",
		Message:     fmt.Sprintf("bucket %q does not exist", bucket),
		Cause:       cause,
		Bucket:      bucket,
		Key:         key,
		Remediation: fmt.Sprintf("create gs://%s or point CERTIFICATE_GCS_BUCKET_NAME at an existing bucket", bucket),
	}
}

func StoragePermissionDenied(bucket, key string, cause error) *Error {
	return &Error{
		Code:        CodeStoragePermissionDenied,
		Op:          "artifact.put",
		Message:     fmt.Sprintf("write to bucket %q denied", bucket),
		Cause:       cause,
		Bucket:      bucket,
		Key:         key,
		Remediation: fmt.Sprintf("grant roles/storage.objectAdmin on gs://%s to the service account in GOOGLE_APPLICATION_CREDENTIALS", bucket),
	}
}

func StorageFailure(bucket, key string, cause error) *Error {
	return &Error{Code: CodeStorageFailure, Op: "artifact.put", Message: "upload failed", Cause: cause, Bucket: bucket, Key: key}
}

func RenderFailed(cause error) *Error {
	return &Error{Code: CodeRenderFailed, Op: "artifact.render", Message: "render failed", Cause: cause}
}

func LedgerFailure(op string, cause error) *Error {
	return &Error{Code: CodeLedgerFailure, Op: op, Message: "ledger operation failed", Cause: cause}
}

func IssuanceInProgress(enrollmentID string) *Error {
	return &Error{
		Code:    CodeIssuanceInProgress,
		Op:      "certificate.issue",
		Message: fmt.Sprintf("another issuance for enrollment %s is running", enrollmentID),
	}
}

func HashRegenerationFailed(cause error) *Error {
	return &Error{Code: CodeHashRegenerationFailed, Op: "certificate.regenerate", Message: "second render pass failed", Cause: cause}
}

func InvalidArgument(op, message string) *Error {
	return &Error{Code: CodeInvalidArgument, Op: op, Message: message}
}
