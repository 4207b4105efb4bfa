package gcp

import (
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

type UploadErrorKind string

const (
	UploadErrorBucketMissing    UploadErrorKind = "bucket_missing"
	UploadErrorPermissionDenied UploadErrorKind = "permission_denied"
	UploadErrorOther            UploadErrorKind = "other"
)

type UploadError struct {
	Kind   UploadErrorKind
	Bucket string
	Key    string
	Cause  error
}

func (e *UploadError) Error() string {
	if e == nil {
		return "upload failed"
	}
	return fmt.Sprintf("upload gs://%s/%s (%s): %v", e.Bucket, e.Key, e.Kind, e.Cause)
}

func (e *UploadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func classifyUploadError(bucket, key string, err error) *UploadError {
	out := &UploadError{Kind: UploadErrorOther, Bucket: bucket, Key: key, Cause: err}
	if errors.Is(err, storage.ErrBucketNotExist) {
		out.Kind = UploadErrorBucketMissing
		return out
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusNotFound:
			// an object write can only 404 on the bucket
			out.Kind = UploadErrorBucketMissing
		case http.StatusUnauthorized, http.StatusForbidden:
			out.Kind = UploadErrorPermissionDenied
		}
	}
	return out
}
