package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/neurobridge-certificates/internal/platform/gcp"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

var newBucketService = gcp.NewBucketService

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode          StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost  StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost  StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorInvalidPublicBaseURL StorageProviderBootstrapErrorCode = "invalid_public_base_url"
	StorageProviderBootstrapErrorConnectFailed        StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v", e.Code, e.Mode, e.EmulatorHost, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// certificateBuckets is the category table handed to the bucket service.
func certificateBuckets(cfg Config) map[gcp.BucketCategory]gcp.BucketConfig {
	return map[gcp.BucketCategory]gcp.BucketConfig{
		gcp.BucketCategoryCertificate: {
			Name:       cfg.CertificateBucketName,
			CDNDomain:  cfg.CertificateCDNDomain,
			PublicRead: cfg.CertificatePublicRead,
		},
	}
}

func resolveBucketService(log *logger.Logger, cfg Config) (gcp.BucketService, error) {
	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.ObjectStorageMode, cfg.StorageEmulatorHost, cfg.ObjectStoragePublicBaseURL)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider selection failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}

	log.Info("Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"bucket", cfg.CertificateBucketName,
	)

	bucket, err := newBucketService(log, storageCfg, certificateBuckets(cfg))
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", storageCfg.ModeSource(),
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidPublicBaseURL:
			code = StorageProviderBootstrapErrorInvalidPublicBaseURL
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
