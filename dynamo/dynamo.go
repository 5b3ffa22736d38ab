// Package dynamo provisions the harness tables and moves fixture records in
// and out of them.
//
// Provision drops every table and creates the parties, items and filters
// tables. Writer and Eraser send batch writes of at most 25 requests and
// re-send unprocessed requests with bounded exponential backoff. Setup and
// Reset compose them into the baseline lifecycle a test runs against.
package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// API is the subset of the dynamodb client the package drives. It is
// satisfied by *dynamodb.Client and by awsmock.Store.
type API interface {
	dynamodb.ListTablesAPIClient
	dynamodb.DescribeTableAPIClient
	dynamodb.ScanAPIClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

const (
	// DefaultMaxRetries is how often unprocessed batch requests are re-sent.
	DefaultMaxRetries = 5

	// DefaultProvisionTimeout bounds each table wait during provisioning.
	DefaultProvisionTimeout = 30 * time.Second
)

// Options configures provisioning, writing and erasing.
type Options struct {
	Logger           *zap.Logger
	MaxRetries       int
	ScanPageSize     int
	ProvisionTimeout time.Duration

	// NewBackOff returns the policy used between retries of one batch.
	NewBackOff func() backoff.BackOff
}

// Option is a functional option for Options.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMaxRetries sets how often unprocessed requests are re-sent before the
// write fails with testapi.ErrUnprocessed.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithScanPageSize caps the records per scan page. Zero leaves paging to the backend.
func WithScanPageSize(n int) Option {
	return func(o *Options) {
		o.ScanPageSize = n
	}
}

// WithProvisionTimeout bounds each wait for a table to appear or disappear.
func WithProvisionTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ProvisionTimeout = d
	}
}

// WithBackOff sets the retry policy factory.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(o *Options) {
		o.NewBackOff = fn
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Logger:           zap.NewNop(),
		MaxRetries:       DefaultMaxRetries,
		ProvisionTimeout: DefaultProvisionTimeout,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}
