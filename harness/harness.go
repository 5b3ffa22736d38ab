// Package harness runs tests against a shared LocalStack backend holding a
// known baseline.
//
// A Harness is built once per test process. Every test wrapped by Run starts
// from the fixture baseline and the baseline is restored when the test ends,
// pass or fail. Reset erases whole tables, so tests using a harness must not
// call t.Parallel.
//
//	func TestMain(m *testing.M) {
//		harness.Main(m)
//	}
//
//	func TestItems(t *testing.T) {
//		harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
//			assert.Table(t, h.Clients.DynamoDB, testapi.TableItems).HasCount(fixture.Size)
//		})
//	}
package harness

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/dynamo"
	"github.com/blitzfilter/test-api/fixture"
	"github.com/blitzfilter/test-api/ingestion"
	"github.com/blitzfilter/test-api/item"
	"github.com/blitzfilter/test-api/localstack"
)

// Kind selects the services a harness runs and the baseline it maintains.
type Kind int

const (
	// KindDynamoDB runs the tables only.
	KindDynamoDB Kind = iota
	// KindIngestion runs the tables, the queue and the function consuming it.
	KindIngestion
)

func (k Kind) String() string {
	switch k {
	case KindDynamoDB:
		return "dynamodb"
	case KindIngestion:
		return "ingestion"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Services returns the LocalStack services the kind needs.
func (k Kind) Services() []string {
	if k == KindIngestion {
		return []string{localstack.ServiceSQS, localstack.ServiceLambda, localstack.ServiceDynamoDB}
	}
	return []string{localstack.ServiceDynamoDB}
}

// Lifecycle establishes and restores a baseline.
type Lifecycle interface {
	Setup(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Harness is a running backend together with the clients and lifecycle
// tests use.
type Harness struct {
	Kind    Kind
	Config  Config
	Logger  *zap.Logger
	Env     *localstack.Environment
	Clients localstack.Clients

	// Pipeline is set for KindIngestion.
	Pipeline *ingestion.Pipeline

	lifecycle  Lifecycle
	runTimeout time.Duration
}

// Option configures New.
type Option func(*Harness)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		h.Logger = logger
	}
}

// New starts LocalStack, connects clients and establishes the baseline.
func New(ctx context.Context, kind Kind, cfg Config, opts ...Option) (*Harness, error) {
	h := &Harness{Kind: kind, Config: cfg, Logger: zap.NewNop(), runTimeout: defaultRunTimeout(cfg)}
	for _, opt := range opts {
		opt(h)
	}

	records, err := loadRecords(cfg.FixturePath)
	if err != nil {
		return nil, err
	}

	h.Env, err = localstack.Start(ctx, cfg.LocalStack, kind.Services()...)
	if err != nil {
		return nil, err
	}
	h.Logger.Info("localstack started",
		zap.String("endpoint", h.Env.Endpoint()),
		zap.Strings("services", kind.Services()))

	if err := h.connect(ctx, records); err != nil {
		return nil, errors.Join(err, h.Env.Terminate(context.Background()))
	}
	return h, nil
}

func (h *Harness) connect(ctx context.Context, records []testapi.Record) error {
	awsCfg, err := localstack.AWSConfig(ctx, h.Config.LocalStack.Region, h.Env.Endpoint())
	if err != nil {
		return err
	}
	h.Clients = localstack.NewClients(awsCfg)

	if err := localstack.WaitReady(ctx, h.Clients.DynamoDB, h.Config.LocalStack.StartupTimeout); err != nil {
		return err
	}

	h.lifecycle, h.Pipeline = newLifecycle(h.Kind, h.Config, h.Logger, h.Clients.DynamoDB, h.Clients.SQS, h.Clients.Lambda, records)
	return h.lifecycle.Setup(ctx)
}

func newLifecycle(kind Kind, cfg Config, logger *zap.Logger, db dynamo.API, queues ingestion.QueueAPI, functions ingestion.FunctionAPI, records []testapi.Record) (Lifecycle, *ingestion.Pipeline) {
	dynamoOpts := []dynamo.Option{
		dynamo.WithLogger(logger),
		dynamo.WithMaxRetries(cfg.MaxRetries),
		dynamo.WithScanPageSize(cfg.ScanPageSize),
	}
	if cfg.ProvisionTimeout > 0 {
		dynamoOpts = append(dynamoOpts, dynamo.WithProvisionTimeout(cfg.ProvisionTimeout))
	}

	if kind != KindIngestion {
		return dynamo.NewLifecycle(db, records, dynamoOpts...), nil
	}

	bundle := ingestion.NewHTTPBundle(cfg.FunctionBundleURL, cfg.BundleCachePath,
		ingestion.WithBundleLogger(logger),
		ingestion.WithCacheMaxAge(cfg.BundleMaxAge),
	)
	p := ingestion.New(db, queues, functions, records,
		ingestion.WithLogger(logger),
		ingestion.WithBundle(bundle),
		ingestion.WithDynamoOptions(dynamoOpts...),
	)
	return p, p
}

func loadRecords(path string) ([]testapi.Record, error) {
	items, err := fixture.Resolve(path)
	if err != nil {
		return nil, err
	}
	return item.MarshalRecords(items)
}

func defaultRunTimeout(cfg Config) time.Duration {
	if cfg.ProvisionTimeout > 0 {
		return 4 * cfg.ProvisionTimeout
	}
	return 2 * time.Minute
}

// Run runs body against the baseline. The baseline is written before body
// runs and restored after it returns, also when body fails or skips.
func (h *Harness) Run(t *testing.T, body func(t *testing.T, h *Harness)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
	defer cancel()
	if err := h.lifecycle.Setup(ctx); err != nil {
		t.Fatalf("harness setup: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
		defer cancel()
		if err := h.lifecycle.Reset(ctx); err != nil {
			t.Errorf("harness reset: %v", err)
		}
	})

	body(t, h)
}

// Reset restores the baseline immediately.
func (h *Harness) Reset(ctx context.Context) error {
	return h.lifecycle.Reset(ctx)
}

// QueueURL returns the pipeline queue URL, or the well-known URL when the
// harness does not run the pipeline.
func (h *Harness) QueueURL() string {
	if h.Pipeline == nil {
		return ingestion.QueueURL
	}
	return h.Pipeline.QueueURL()
}

// Close terminates the backend.
func (h *Harness) Close(ctx context.Context) error {
	if h.Env == nil {
		return nil
	}
	return h.Env.Terminate(ctx)
}
