package certificates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/gcp"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

const (
	artifactContentType = "application/pdf"
	// pass 2 overwrites the object under the same key
	artifactCacheControl = "no-cache, max-age=0"
)

// ArtifactKey is "{userId}-{courseId}-{unixMillis}.pdf".
func ArtifactKey(userID, courseID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d.pdf", userID, courseID, at.UnixMilli())
}

type BucketArtifactStoreDeps struct {
	Log     *logger.Logger
	Bucket  gcp.BucketService
	Metrics *observability.Metrics
}

// BucketArtifactStore stores artifacts in the certificates bucket category.
type BucketArtifactStore struct {
	log     *logger.Logger
	bucket  gcp.BucketService
	metrics *observability.Metrics
}

func NewBucketArtifactStore(deps BucketArtifactStoreDeps) *BucketArtifactStore {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &BucketArtifactStore{
		log:     log.With("service", "CertificateArtifactStore"),
		bucket:  deps.Bucket,
		metrics: deps.Metrics,
	}
}

func (s *BucketArtifactStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	start := time.Now()
	bucketName := s.bucket.BucketName(gcp.BucketCategoryCertificate)
	err := s.bucket.UploadFile(ctx, gcp.BucketCategoryCertificate, key, bytes.NewReader(data), gcp.UploadOptions{
		ContentType:  artifactContentType,
		CacheControl: artifactCacheControl,
	})
	if err != nil {
		mapped := mapUploadError(bucketName, key, err)
		s.metrics.ObserveCertificateUpload(string(mapped.Code), time.Since(start))
		s.log.Error("Certificate upload failed",
			"bucket", bucketName,
			"key", key,
			"code", mapped.Code,
			"remediation", mapped.Remediation,
			"error", err,
		)
		return "", mapped
	}
	s.metrics.ObserveCertificateUpload("success", time.Since(start))
	return s.bucket.GetPublicURL(gcp.BucketCategoryCertificate, key), nil
}

func mapUploadError(bucket, key string, err error) *domain.Error {
	var upErr *gcp.UploadError
	if errors.As(err, &upErr) {
		if upErr.Bucket != "" {
			bucket = upErr.Bucket
		}
		switch upErr.Kind {
		case gcp.UploadErrorBucketMissing:
			return domain.StorageBucketMissing(bucket, key, err)
		case gcp.UploadErrorPermissionDenied:
			return domain.StoragePermissionDenied(bucket, key, err)
		}
	}
	return domain.StorageFailure(bucket, key, err)
}
