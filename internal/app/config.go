package app

import (
	"strings"
	"time"

	"github.com/yungbote/neurobridge-certificates/internal/data/db"
	"github.com/yungbote/neurobridge-certificates/internal/platform/envutil"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	ShutdownGrace  time.Duration

	Postgres     db.PostgresConfig
	JWTSecretKey string

	CertificateHashSalt      string
	CertificateVerifyBaseURL string
	CertificateTemplatesPath string
	CertificateIssueTimeout  time.Duration
	SignatureFetchTimeout    time.Duration

	CertificateBucketName string
	CertificateCDNDomain  string
	CertificatePublicRead bool

	ObjectStorageMode          string
	StorageEmulatorHost        string
	ObjectStoragePublicBaseURL string

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	CertificateLockTTL  time.Duration
	CertificateLockWait time.Duration

	ServiceName string
	Environment string
	Version     string
	MetricsAddr string
}

// LoadConfig reads the environment once. Secrets are reported only as set or
// unset.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		ShutdownGrace:  envutil.Duration("SHUTDOWN_GRACE", 15*time.Second),

		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "neurobridge"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),

		CertificateHashSalt:      envutil.String("CERTIFICATE_HASH_SALT", ""),
		CertificateVerifyBaseURL: envutil.String("CERTIFICATE_VERIFY_BASE_URL", "http://localhost:8080"),
		CertificateTemplatesPath: envutil.String("CERTIFICATE_TEMPLATES_PATH", ""),
		CertificateIssueTimeout:  envutil.Duration("CERTIFICATE_ISSUE_TIMEOUT", 60*time.Second),
		SignatureFetchTimeout:    envutil.Duration("CERTIFICATE_SIGNATURE_TIMEOUT", 5*time.Second),

		CertificateBucketName: envutil.String("CERTIFICATE_GCS_BUCKET_NAME", "certificates"),
		CertificateCDNDomain:  envutil.String("CERTIFICATE_CDN_DOMAIN", ""),
		CertificatePublicRead: envutil.Bool("CERTIFICATE_PUBLIC_READ_ACL", false),

		ObjectStorageMode:          envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost:        envutil.String("STORAGE_EMULATOR_HOST", ""),
		ObjectStoragePublicBaseURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),

		RedisAddr:           envutil.String("REDIS_ADDR", ""),
		RedisPassword:       envutil.String("REDIS_PASSWORD", ""),
		RedisDB:             envutil.Int("REDIS_DB", 0),
		CertificateLockTTL:  envutil.Duration("CERTIFICATE_LOCK_TTL", 2*time.Minute),
		CertificateLockWait: envutil.Duration("CERTIFICATE_LOCK_WAIT", 5*time.Second),

		ServiceName: envutil.String("OTEL_SERVICE_NAME", "neurobridge-certificates"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
		MetricsAddr: envutil.String("METRICS_ADDR", ""),
	}

	if log != nil {
		log.Info("Configuration loaded",
			"port", cfg.Port,
			"postgres_host", cfg.Postgres.Host,
			"postgres_db", cfg.Postgres.Name,
			"jwt_secret_set", cfg.JWTSecretKey != "",
			"certificate_hash_salt_set", cfg.CertificateHashSalt != "",
			"certificate_verify_base_url", cfg.CertificateVerifyBaseURL,
			"certificate_bucket", cfg.CertificateBucketName,
			"certificate_templates_path", cfg.CertificateTemplatesPath,
			"certificate_issue_timeout", cfg.CertificateIssueTimeout,
			"object_storage_mode", cfg.ObjectStorageMode,
			"redis_enabled", cfg.RedisAddr != "",
			"environment", cfg.Environment,
		)
		if cfg.JWTSecretKey == "" {
			log.Warn("JWT_SECRET_KEY is empty; every authenticated request will be rejected")
		}
		if cfg.CertificateHashSalt == "" {
			log.Warn("CERTIFICATE_HASH_SALT is empty; certificate hashes are unsalted")
		}
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
