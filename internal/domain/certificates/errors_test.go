package certificates

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("issue: %w", MissingLessons(4, 5))
	if got := CodeOf(err); got != CodeMissingLessons {
		t.Fatalf("CodeOf: want=%q got=%q", CodeMissingLessons, got)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Completed != 4 || ce.Total != 5 {
		t.Fatalf("details: want completed=4 total=5 got=%+v", ce)
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain error should have no code")
	}
}

func TestStorageErrorsCarryLocationAndHint(t *testing.T) {
	cause := errors.New("404")
	err := StorageBucketMissing("certs", "u-c-1.pdf", cause)
	if err.Bucket != "certs" || err.Key != "u-c-1.pdf" || err.Remediation == "" {
		t.Fatalf("bucket missing: got=%+v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not preserved")
	}
	if StoragePermissionDenied("certs", "k", nil).Remediation == "" {
		t.Fatalf("permission denied: remediation required")
	}
}

func TestRetryable(t *testing.T) {
	if !IssuanceInProgress("e1").Retryable() {
		t.Fatalf("issuance_in_progress should be retryable")
	}
	if MissingLessons(1, 2).Retryable() {
		t.Fatalf("missing_lessons should not be retryable")
	}
}
