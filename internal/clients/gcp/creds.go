package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptionsFromEnv prefers an explicit API key, then service account credentials
// (inline JSON or a file path). With neither set the client falls back to ADC.
func ClientOptionsFromEnv(apiKey string) []option.ClientOption {
	if k := strings.TrimSpace(apiKey); k != "" {
		return []option.ClientOption{option.WithAPIKey(k)}
	}
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	opts := []option.ClientOption{}
	if creds == "" {
		return opts
	}
	if strings.HasPrefix(creds, "{") {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}
