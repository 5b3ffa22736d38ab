package localstack

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/cenkalti/backoff/v5"
)

// Static credentials LocalStack accepts.
const (
	AccessKeyID     = "test"
	SecretAccessKey = "test"
)

// AWSConfig returns an aws.Config with static test credentials that sends
// every request to endpoint.
func AWSConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(AccessKeyID, SecretAccessKey, "")),
		config.WithBaseEndpoint(endpoint),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Clients bundles the service clients the harness uses.
type Clients struct {
	DynamoDB *dynamodb.Client
	SQS      *sqs.Client
	Lambda   *lambda.Client
}

// NewClients creates one client per service from cfg.
func NewClients(cfg aws.Config) Clients {
	return Clients{
		DynamoDB: dynamodb.NewFromConfig(cfg),
		SQS:      sqs.NewFromConfig(cfg),
		Lambda:   lambda.NewFromConfig(cfg),
	}
}

// WaitReady polls client until the backend answers or ctx is done. The
// container reports healthy slightly before every service accepts requests.
func WaitReady(ctx context.Context, client dynamodb.ListTablesAPIClient, maxWait time.Duration) error {
	_, err := backoff.Retry(ctx, func() (*dynamodb.ListTablesOutput, error) {
		return client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(250*time.Millisecond)),
		backoff.WithMaxElapsedTime(maxWait),
	)
	if err != nil {
		return fmt.Errorf("localstack not ready after %v: %w", maxWait, err)
	}
	return nil
}
