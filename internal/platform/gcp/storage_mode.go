package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

// ObjectStorageConfig selects between real GCS and a fake-gcs-server style
// emulator, and where public object URLs point.
type ObjectStorageConfig struct {
	Mode                  ObjectStorageMode
	EmulatorHost          string
	PublicBaseURL         string
	PublicBaseSource      string
	CompatibilityFallback bool
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

func (cfg ObjectStorageConfig) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ObjectStorageConfigErrorCode string

const (
	ObjectStorageConfigErrorInvalidMode          ObjectStorageConfigErrorCode = "invalid_mode"
	ObjectStorageConfigErrorMissingEmulatorHost  ObjectStorageConfigErrorCode = "missing_emulator_host"
	ObjectStorageConfigErrorInvalidEmulatorHost  ObjectStorageConfigErrorCode = "invalid_emulator_host"
	ObjectStorageConfigErrorInvalidPublicBaseURL ObjectStorageConfigErrorCode = "invalid_public_base_url"
)

type ObjectStorageConfigError struct {
	Code  ObjectStorageConfigErrorCode
	Value string
	Cause error
}

func (e *ObjectStorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ObjectStorageConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", e.Value, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator)
	case ObjectStorageConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ObjectStorageModeGCSEmulator)
	case ObjectStorageConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case ObjectStorageConfigErrorInvalidPublicBaseURL:
		return fmt.Sprintf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", e.Value)
	default:
		return "invalid object storage config"
	}
}

func (e *ObjectStorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func ResolveObjectStorageConfigFromEnv() (ObjectStorageConfig, error) {
	return ResolveObjectStorageConfig(
		os.Getenv("OBJECT_STORAGE_MODE"),
		os.Getenv("STORAGE_EMULATOR_HOST"),
		os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL"),
	)
}

// ResolveObjectStorageConfig applies the mode defaulting rules: an empty mode
// means gcs, unless an emulator host is set.
func ResolveObjectStorageConfig(rawMode, emulatorHost, publicBaseURL string) (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		EmulatorHost: strings.TrimRight(strings.TrimSpace(emulatorHost), "/"),
	}
	rawMode = strings.TrimSpace(rawMode)
	switch mode := ObjectStorageMode(strings.ToLower(rawMode)); mode {
	case "":
		cfg.Mode = ObjectStorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
			cfg.CompatibilityFallback = true
		}
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator:
		cfg.Mode = mode
	default:
		cfg.Mode = mode
		return cfg, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Value: rawMode}
	}
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return cfg, err
	}

	base, source, err := resolvePublicBaseURL(cfg, publicBaseURL)
	if err != nil {
		return cfg, err
	}
	cfg.PublicBaseURL, cfg.PublicBaseSource = base, source
	return cfg, nil
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return nil
	case ObjectStorageModeGCSEmulator:
	default:
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Value: string(cfg.Mode)}
	}
	if cfg.EmulatorHost == "" {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingEmulatorHost}
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidEmulatorHost, Value: cfg.EmulatorHost}
	}
	return nil
}

func resolvePublicBaseURL(cfg ObjectStorageConfig, raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if !isAbsoluteURL(raw) {
			return "", "", &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidPublicBaseURL, Value: raw}
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.IsEmulatorMode() {
		return cfg.EmulatorHost, "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
