package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/dynamo"
)

// Pipeline owns the tables, the queue, the function and the mapping between
// queue and function. Tests sharing a backend share one Pipeline; it is not
// safe for concurrent use.
type Pipeline struct {
	queues    QueueAPI
	functions FunctionAPI
	tables    *dynamo.Lifecycle
	opts      Options

	queueURL    string
	provisioned bool
}

// New creates a Pipeline that seeds records into the items table.
func New(db dynamo.API, queues QueueAPI, functions FunctionAPI, records []testapi.Record, opts ...Option) *Pipeline {
	o := newOptions(opts)
	dynamoOpts := append([]dynamo.Option{dynamo.WithLogger(o.Logger)}, o.DynamoOptions...)
	return &Pipeline{
		queues:    queues,
		functions: functions,
		tables:    dynamo.NewLifecycle(db, records, dynamoOpts...),
		opts:      o,
	}
}

// QueueURL returns the URL of the pipeline queue. Before Setup it is the
// well-known QueueURL.
func (p *Pipeline) QueueURL() string {
	if p.queueURL == "" {
		return QueueURL
	}
	return p.queueURL
}

// Setup establishes the baseline: tables with the fixture, an empty queue, and
// an active function consuming it. Everything but the fixture is built once;
// the first call removes queues, functions and mappings left by earlier runs.
func (p *Pipeline) Setup(ctx context.Context) error {
	if err := p.tables.Setup(ctx); err != nil {
		return err
	}
	if p.provisioned {
		return nil
	}

	if err := p.teardownQueues(ctx); err != nil {
		return err
	}
	if err := p.teardownFunctions(ctx); err != nil {
		return err
	}
	if err := p.createQueue(ctx); err != nil {
		return err
	}
	if err := p.createFunction(ctx); err != nil {
		return err
	}
	if err := p.createMapping(ctx); err != nil {
		return err
	}

	p.provisioned = true
	p.opts.Logger.Info("ingestion pipeline ready",
		zap.String("queue", p.QueueURL()),
		zap.String("function", FunctionName))
	return nil
}

// Reset restores the table baseline and drops every queued message. A purge
// already in progress is retried until PurgeTimeout elapses.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.tables.Reset(ctx); err != nil {
		return err
	}

	_, err := backoff.Retry(ctx, func() (*sqs.PurgeQueueOutput, error) {
		out, err := p.queues.PurgeQueue(ctx, &sqs.PurgeQueueInput{QueueUrl: aws.String(p.QueueURL())})
		var inProgress *sqstypes.PurgeQueueInProgress
		if errors.As(err, &inProgress) {
			p.opts.Logger.Debug("purge already in progress", zap.String("queue", p.QueueURL()))
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return out, nil
	},
		backoff.WithBackOff(p.opts.NewPurgeBackOff()),
		backoff.WithMaxElapsedTime(p.opts.PurgeTimeout),
	)
	return testapi.Fail("purge-queue", QueueName, err)
}

func (p *Pipeline) createQueue(ctx context.Context) error {
	out, err := p.queues.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(QueueName)})
	if err != nil {
		return testapi.Fail("create-queue", QueueName, err)
	}
	p.queueURL = aws.ToString(out.QueueUrl)
	return nil
}

func (p *Pipeline) createFunction(ctx context.Context) error {
	code, err := p.opts.Bundle.Fetch(ctx)
	if err != nil {
		return testapi.Fail("fetch-bundle", FunctionName, err)
	}

	_, err = p.functions.CreateFunction(ctx, &lambda.CreateFunctionInput{
		FunctionName: aws.String(FunctionName),
		Runtime:      lambdatypes.RuntimeProvidedal2023,
		Handler:      aws.String(FunctionHandler),
		Role:         aws.String(FunctionRole),
		Code:         &lambdatypes.FunctionCode{ZipFile: code},
	})
	if err != nil {
		return testapi.Fail("create-function", FunctionName, err)
	}

	active := lambda.NewFunctionActiveV2Waiter(p.functions)
	err = active.Wait(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(FunctionName)}, p.opts.FunctionTimeout)
	if err != nil {
		return testapi.Fail("wait-function", FunctionName, err)
	}
	return nil
}

func (p *Pipeline) createMapping(ctx context.Context) error {
	attrs, err := p.queues.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(p.QueueURL()),
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return testapi.Fail("queue-arn", QueueName, err)
	}
	arn, ok := attrs.Attributes[string(sqstypes.QueueAttributeNameQueueArn)]
	if !ok || arn == "" {
		return testapi.Fail("queue-arn", QueueName, fmt.Errorf("attribute %s missing", sqstypes.QueueAttributeNameQueueArn))
	}

	_, err = p.functions.CreateEventSourceMapping(ctx, &lambda.CreateEventSourceMappingInput{
		EventSourceArn:                 aws.String(arn),
		FunctionName:                   aws.String(FunctionName),
		BatchSize:                      aws.Int32(EventSourceBatchSize),
		MaximumBatchingWindowInSeconds: aws.Int32(int32(EventSourceBatchingWindow.Seconds())),
	})
	if err != nil {
		return testapi.Fail("create-mapping", FunctionName, err)
	}
	return nil
}
