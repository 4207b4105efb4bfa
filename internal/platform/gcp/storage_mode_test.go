package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigFromEnv(t *testing.T) {
	cases := []struct {
		name         string
		mode         string
		emulator     string
		publicBase   string
		wantMode     ObjectStorageMode
		wantFallback bool
		wantBase     string
		wantSource   string
	}{
		{name: "default gcs", wantMode: ObjectStorageModeGCS, wantSource: "gcs_default"},
		{name: "explicit gcs ignores emulator", mode: "gcs", emulator: "http://fake-gcs:4443", wantMode: ObjectStorageModeGCS, wantSource: "gcs_default"},
		{name: "explicit emulator", mode: "GCS_EMULATOR", emulator: "http://fake-gcs:4443/", wantMode: ObjectStorageModeGCSEmulator, wantBase: "http://fake-gcs:4443", wantSource: "storage_emulator_host"},
		{name: "compatibility fallback", emulator: "http://fake-gcs:4443", wantMode: ObjectStorageModeGCSEmulator, wantFallback: true, wantBase: "http://fake-gcs:4443", wantSource: "storage_emulator_host"},
		{name: "public base override", mode: "gcs_emulator", emulator: "http://fake-gcs:4443", publicBase: "http://localhost:4443/", wantMode: ObjectStorageModeGCSEmulator, wantBase: "http://localhost:4443", wantSource: "object_storage_public_base_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.emulator)
			t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", tc.publicBase)

			cfg, err := ResolveObjectStorageConfigFromEnv()
			if err != nil {
				t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
			}
			if cfg.Mode != tc.wantMode {
				t.Fatalf("mode: want=%q got=%q", tc.wantMode, cfg.Mode)
			}
			if cfg.CompatibilityFallback != tc.wantFallback {
				t.Fatalf("compatibility fallback: want=%v got=%v", tc.wantFallback, cfg.CompatibilityFallback)
			}
			if cfg.PublicBaseURL != tc.wantBase {
				t.Fatalf("public base: want=%q got=%q", tc.wantBase, cfg.PublicBaseURL)
			}
			if cfg.PublicBaseSource != tc.wantSource {
				t.Fatalf("public base source: want=%q got=%q", tc.wantSource, cfg.PublicBaseSource)
			}
		})
	}
}

func TestResolveObjectStorageConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name       string
		mode       string
		emulator   string
		publicBase string
		wantCode   ObjectStorageConfigErrorCode
	}{
		{name: "invalid mode", mode: "s3", wantCode: ObjectStorageConfigErrorInvalidMode},
		{name: "emulator without host", mode: "gcs_emulator", wantCode: ObjectStorageConfigErrorMissingEmulatorHost},
		{name: "relative emulator host", mode: "gcs_emulator", emulator: "fake-gcs:4443", wantCode: ObjectStorageConfigErrorInvalidEmulatorHost},
		{name: "relative public base", mode: "gcs", publicBase: "localhost:4443", wantCode: ObjectStorageConfigErrorInvalidPublicBaseURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.emulator)
			t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", tc.publicBase)

			_, err := ResolveObjectStorageConfigFromEnv()
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ObjectStorageConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Code != tc.wantCode {
				t.Fatalf("code: want=%q got=%q", tc.wantCode, cfgErr.Code)
			}
		})
	}
}
