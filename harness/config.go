package harness

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/blitzfilter/test-api/ingestion"
	"github.com/blitzfilter/test-api/localstack"
)

// Config describes a harness. Every field can be set from the environment.
type Config struct {
	LocalStack localstack.Config

	ProvisionTimeout  time.Duration `env:"TEST_API_PROVISION_TIMEOUT" envDefault:"30s"`
	FunctionBundleURL string        `env:"TEST_API_FUNCTION_BUNDLE_URL"`
	BundleCachePath   string        `env:"TEST_API_BUNDLE_CACHE_PATH"`
	BundleMaxAge      time.Duration `env:"TEST_API_BUNDLE_MAX_AGE" envDefault:"1h"`
	FixturePath       string        `env:"TEST_API_FIXTURE_PATH"`
	ScanPageSize      int           `env:"TEST_API_SCAN_PAGE_SIZE"`
	MaxRetries        int           `env:"TEST_API_MAX_RETRIES" envDefault:"5"`
	Debug             bool          `env:"TEST_API_DEBUG"`
}

// ParseEnv loads a Config from the environment.
func ParseEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.FunctionBundleURL == "" {
		cfg.FunctionBundleURL = ingestion.FunctionBundleURL
	}
	if cfg.BundleCachePath == "" {
		cfg.BundleCachePath = ingestion.BundleCachePath
	}
	return cfg, nil
}
