package localstack

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config describes the LocalStack container.
type Config struct {
	Tag            string        `env:"TEST_API_LOCALSTACK_TAG" envDefault:"latest"`
	ContainerName  string        `env:"TEST_API_CONTAINER_NAME" envDefault:"localstack-test-api"`
	HostPort       int           `env:"TEST_API_HOST_PORT" envDefault:"4566"`
	Region         string        `env:"TEST_API_REGION" envDefault:"eu-central-1"`
	StartupTimeout time.Duration `env:"TEST_API_STARTUP_TIMEOUT" envDefault:"2m"`
}

// Image returns the container image reference.
func (c Config) Image() string {
	return "localstack/localstack:" + c.Tag
}

// ParseEnv loads a Config from the environment, applying defaults for unset variables.
func ParseEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
