package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptionsFromEnv accepts either inline service-account JSON or a path.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}
