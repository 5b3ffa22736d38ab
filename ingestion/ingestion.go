// Package ingestion provisions the queue → function → table pipeline on an
// emulated backend and restores its baseline between tests.
package ingestion

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/blitzfilter/test-api/dynamo"
)

// Well-known pipeline resources. The function consumes QueueName and writes
// into the items table.
const (
	QueueName = "write_lambda_queue"
	QueueURL  = "http://sqs.eu-central-1.localhost.localstack.cloud:4566/000000000000/write_lambda_queue"

	FunctionName      = "item_write_lambda"
	FunctionBundleURL = "https://raw.githubusercontent.com/blitzfilter/item-write-lambda/main/bootstrap.zip"
	FunctionHandler   = "lib.function_handler"
	FunctionRole      = "arn:aws:iam::000000000000:role/service-role/dummy"

	BundleCachePath = "/tmp/item_write_lambda_bootstrap.zip"

	EventSourceBatchSize      = 1000
	EventSourceBatchingWindow = 5 * time.Second
)

// QueueAPI is the subset of the sqs client the pipeline drives.
type QueueAPI interface {
	sqs.ListQueuesAPIClient
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	PurgeQueue(ctx context.Context, params *sqs.PurgeQueueInput, optFns ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error)
}

// FunctionAPI is the subset of the lambda client the pipeline drives.
type FunctionAPI interface {
	lambda.ListFunctionsAPIClient
	lambda.ListEventSourceMappingsAPIClient
	lambda.GetFunctionAPIClient
	CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error)
	DeleteFunction(ctx context.Context, params *lambda.DeleteFunctionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error)
	CreateEventSourceMapping(ctx context.Context, params *lambda.CreateEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.CreateEventSourceMappingOutput, error)
	DeleteEventSourceMapping(ctx context.Context, params *lambda.DeleteEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.DeleteEventSourceMappingOutput, error)
}

var (
	_ QueueAPI    = (*sqs.Client)(nil)
	_ FunctionAPI = (*lambda.Client)(nil)
)

// Options configures a Pipeline.
type Options struct {
	Logger          *zap.Logger
	Bundle          BundleSource
	FunctionTimeout time.Duration
	DynamoOptions   []dynamo.Option

	// PurgeTimeout bounds how long Reset waits out a purge already in
	// progress. SQS allows one purge per queue every 60 seconds.
	PurgeTimeout    time.Duration
	NewPurgeBackOff func() backoff.BackOff
}

// Option is a functional option for Options.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithBundle sets where the function code comes from.
func WithBundle(b BundleSource) Option {
	return func(o *Options) {
		o.Bundle = b
	}
}

// WithFunctionTimeout bounds the wait for the function to become active.
func WithFunctionTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.FunctionTimeout = d
	}
}

// WithDynamoOptions passes options through to the table lifecycle.
func WithDynamoOptions(opts ...dynamo.Option) Option {
	return func(o *Options) {
		o.DynamoOptions = append(o.DynamoOptions, opts...)
	}
}

// WithPurgeRetry sets the wait for a purge in progress and the policy between attempts.
func WithPurgeRetry(timeout time.Duration, newBackOff func() backoff.BackOff) Option {
	return func(o *Options) {
		o.PurgeTimeout = timeout
		o.NewPurgeBackOff = newBackOff
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Logger:          zap.NewNop(),
		FunctionTimeout: time.Minute,
		PurgeTimeout:    90 * time.Second,
		NewPurgeBackOff: func() backoff.BackOff { return backoff.NewConstantBackOff(time.Second) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Bundle == nil {
		o.Bundle = NewHTTPBundle(FunctionBundleURL, BundleCachePath, WithBundleLogger(o.Logger))
	}
	return o
}
