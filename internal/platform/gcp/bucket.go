package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryCertificate BucketCategory = "certificates"
)

type BucketConfig struct {
	Name      string
	CDNDomain string
	// PublicRead applies the publicRead predefined ACL on upload. Leave it off
	// for buckets with uniform bucket-level access.
	PublicRead bool
}

type UploadOptions struct {
	ContentType  string
	CacheControl string
}

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, body io.Reader, opts UploadOptions) error
	GetPublicURL(category BucketCategory, key string) string
	BucketName(category BucketCategory) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   ObjectStorageMode
	emulatorHost  string
	publicBaseURL string
	buckets       map[BucketCategory]BucketConfig
	uploadTimeout time.Duration
}

func NewBucketService(log *logger.Logger, storageCfg ObjectStorageConfig, buckets map[BucketCategory]BucketConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	for category, cfg := range buckets {
		if strings.TrimSpace(cfg.Name) == "" {
			return nil, fmt.Errorf("missing bucket name for category %q", category)
		}
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClientForMode(context.Background(), storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"public_base_source", storageCfg.PublicBaseSource,
		"public_base_url", storageCfg.PublicBaseURL,
		"certificate_bucket", buckets[BucketCategoryCertificate].Name,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		storageMode:   storageCfg.Mode,
		emulatorHost:  storageCfg.EmulatorHost,
		publicBaseURL: storageCfg.PublicBaseURL,
		buckets:       buckets,
		uploadTimeout: 2 * time.Minute,
	}, nil
}

func newStorageClientForMode(ctx context.Context, storageCfg ObjectStorageConfig) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// the storage client only honours the emulator through the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", storageCfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Value: string(storageCfg.Mode)}
	}
}

func (bs *bucketService) bucketConfig(category BucketCategory) (BucketConfig, error) {
	cfg, ok := bs.buckets[category]
	if !ok {
		return BucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
	return cfg, nil
}

func (bs *bucketService) BucketName(category BucketCategory) string {
	cfg, err := bs.bucketConfig(category)
	if err != nil {
		return ""
	}
	return cfg.Name
}

// UploadFile writes (or overwrites) key. Failures come back as *UploadError.
func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, body io.Reader, opts UploadOptions) error {
	cfg, err := bs.bucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, bs.uploadTimeout)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.Name).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	if w.ContentType == "" {
		w.ContentType = contentTypeForKey(key)
	}
	w.CacheControl = opts.CacheControl
	if cfg.PublicRead {
		w.PredefinedACL = "publicRead"
	}
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return classifyUploadError(cfg.Name, key, fmt.Errorf("write object: %w", err))
	}
	if err := w.Close(); err != nil {
		return classifyUploadError(cfg.Name, key, fmt.Errorf("close writer: %w", err))
	}
	bs.log.Debug("Object uploaded", "bucket", cfg.Name, "key", key, "content_type", w.ContentType)
	return nil
}

func contentTypeForKey(key string) string {
	k := strings.ToLower(key)
	switch {
	case strings.HasSuffix(k, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(k, ".png"):
		return "image/png"
	case strings.HasSuffix(k, ".jpg"), strings.HasSuffix(k, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(k, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// GetPublicURL is stable for a key: CDN first, then the emulator media URL,
// then an explicit public base, then storage.googleapis.com.
func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.bucketConfig(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(cfg.CDNDomain, "/"), key)
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		if u := bs.emulatorMediaURL(cfg.Name, key); u != "" {
			return u
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, cfg.Name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Name, key)
}

func (bs *bucketService) emulatorMediaURL(bucket, key string) string {
	base := strings.TrimRight(strings.TrimSpace(bs.publicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(bs.emulatorHost), "/")
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bucket), url.PathEscape(key))
}
