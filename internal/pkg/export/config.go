package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
)

// Config holds the S3 settings for statement export.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	LinkTTL         time.Duration
	Enabled         bool
}

// LoadConfig reads S3_* variables. Credentials are only required when S3_EXPORT_ENABLED is true.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		LinkTTL:         env.GetEnvDuration("S3_LINK_TTL", 7*24*time.Hour),
		Enabled:         env.GetEnvBool("S3_EXPORT_ENABLED", false),
	}

	if cfg.Enabled {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 export is enabled")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 export is enabled")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 export is enabled")
		}
	}
	return cfg, nil
}

// ObjectKey is statements/<user>/<YYYY-MM>/<id>.csv.
func (c *Config) ObjectKey(userID uint, month, id string) string {
	return fmt.Sprintf("statements/%d/%s/%s.csv", userID, month, id)
}
