package awsmock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures failures reported by unexpected calls.
type recorder struct {
	testing.TB
	errors []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, format)
}

func TestNewDynamoDBClient_UnexpectedCall(t *testing.T) {
	rec := &recorder{TB: t}
	mock := NewDynamoDBClient(rec)

	_, err := mock.Scan(context.Background(), &dynamodb.ScanInput{})

	assert.ErrorIs(t, err, ErrUnexpectedCall)
	assert.Len(t, rec.errors, 1)
}

func TestDynamoDBClient_WithExpectation(t *testing.T) {
	mock := NewDynamoDBClient(t)
	want := &dynamodb.ListTablesOutput{TableNames: []string{"items"}}

	mock.ListTablesFunc = func(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
		return want, nil
	}

	got, err := mock.ListTables(context.Background(), &dynamodb.ListTablesInput{})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestSQSClient_WithError(t *testing.T) {
	mock := NewSQSClient(t)
	boom := errors.New("boom")

	mock.PurgeQueueFunc = func(ctx context.Context, params *sqs.PurgeQueueInput, optFns ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error) {
		assert.Equal(t, "http://queue", aws.ToString(params.QueueUrl))
		return nil, boom
	}

	_, err := mock.PurgeQueue(context.Background(), &sqs.PurgeQueueInput{QueueUrl: aws.String("http://queue")})
	assert.ErrorIs(t, err, boom)
}

func TestLambdaClient_UnexpectedCall(t *testing.T) {
	rec := &recorder{TB: t}
	mock := NewLambdaClient(rec)

	_, err := mock.DeleteFunction(context.Background(), &lambda.DeleteFunctionInput{})

	assert.ErrorIs(t, err, ErrUnexpectedCall)
	assert.Equal(t, []string{"unexpected call to %s"}, rec.errors)
}
