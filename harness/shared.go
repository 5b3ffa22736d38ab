package harness

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/zap"
)

// One backend per process: the container name and host port are fixed.
var shared struct {
	mu   sync.Mutex
	kind Kind
	lazy *Lazy[*Harness]
}

// Shared returns the process-wide harness of the given kind, building it on
// first use from the environment configuration. A process runs one kind; asking
// for another is an error.
func Shared(kind Kind) (*Harness, error) {
	shared.mu.Lock()
	if shared.lazy == nil {
		shared.kind = kind
		shared.lazy = &Lazy[*Harness]{}
	}
	if shared.kind != kind {
		running := shared.kind
		shared.mu.Unlock()
		return nil, fmt.Errorf("harness: %s requested but this process runs %s", kind, running)
	}
	lazy := shared.lazy
	shared.mu.Unlock()

	return lazy.Get(func() (*Harness, error) {
		cfg, err := ParseEnv()
		if err != nil {
			return nil, err
		}
		logger, err := newLogger(cfg.Debug)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.LocalStack.StartupTimeout+4*cfg.ProvisionTimeout)
		defer cancel()
		return New(ctx, kind, cfg, WithLogger(logger))
	})
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// Current returns the shared harness for a test. It skips the test in short
// mode and when no container runtime is available.
func Current(t *testing.T, kind Kind) *Harness {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping localstack test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	h, err := Shared(kind)
	if err != nil {
		t.Fatalf("harness: %v", err)
	}
	return h
}

// Main runs the tests of a package and terminates the shared backend if a
// test started it. Call it from TestMain.
func Main(m *testing.M) {
	code := m.Run()

	shared.mu.Lock()
	lazy := shared.lazy
	shared.mu.Unlock()

	if lazy != nil {
		if h, ok := lazy.Loaded(); ok {
			if err := h.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "harness: %v\n", err)
				if code == 0 {
					code = 1
				}
			}
			_ = h.Logger.Sync()
		}
	}
	os.Exit(code)
}
