package awsmock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// ErrUnexpectedCall is returned by mock operations that have no expectation set.
var ErrUnexpectedCall = errors.New("unexpected call")

// Call is the signature shared by every AWS SDK v2 operation.
type Call[O, T, U any] = func(context.Context, *T, ...func(*O)) (*U, error)

func unexpected[O, T, U any](t testing.TB, op string) Call[O, T, U] {
	return func(ctx context.Context, params *T, optFns ...func(*O)) (*U, error) {
		t.Helper()
		t.Errorf("unexpected call to %s", op)
		return nil, ErrUnexpectedCall
	}
}

// DynamoDBClient is an expectation-based mock of the dynamodb operations the
// harness uses.
type DynamoDBClient struct {
	CreateTableFunc    Call[dynamodb.Options, dynamodb.CreateTableInput, dynamodb.CreateTableOutput]
	DeleteTableFunc    Call[dynamodb.Options, dynamodb.DeleteTableInput, dynamodb.DeleteTableOutput]
	DescribeTableFunc  Call[dynamodb.Options, dynamodb.DescribeTableInput, dynamodb.DescribeTableOutput]
	ListTablesFunc     Call[dynamodb.Options, dynamodb.ListTablesInput, dynamodb.ListTablesOutput]
	ScanFunc           Call[dynamodb.Options, dynamodb.ScanInput, dynamodb.ScanOutput]
	BatchWriteItemFunc Call[dynamodb.Options, dynamodb.BatchWriteItemInput, dynamodb.BatchWriteItemOutput]
	PutItemFunc        Call[dynamodb.Options, dynamodb.PutItemInput, dynamodb.PutItemOutput]
}

// NewDynamoDBClient creates a DynamoDBClient with no expectations set.
func NewDynamoDBClient(t testing.TB) *DynamoDBClient {
	return &DynamoDBClient{
		CreateTableFunc:    unexpected[dynamodb.Options, dynamodb.CreateTableInput, dynamodb.CreateTableOutput](t, "CreateTable"),
		DeleteTableFunc:    unexpected[dynamodb.Options, dynamodb.DeleteTableInput, dynamodb.DeleteTableOutput](t, "DeleteTable"),
		DescribeTableFunc:  unexpected[dynamodb.Options, dynamodb.DescribeTableInput, dynamodb.DescribeTableOutput](t, "DescribeTable"),
		ListTablesFunc:     unexpected[dynamodb.Options, dynamodb.ListTablesInput, dynamodb.ListTablesOutput](t, "ListTables"),
		ScanFunc:           unexpected[dynamodb.Options, dynamodb.ScanInput, dynamodb.ScanOutput](t, "Scan"),
		BatchWriteItemFunc: unexpected[dynamodb.Options, dynamodb.BatchWriteItemInput, dynamodb.BatchWriteItemOutput](t, "BatchWriteItem"),
		PutItemFunc:        unexpected[dynamodb.Options, dynamodb.PutItemInput, dynamodb.PutItemOutput](t, "PutItem"),
	}
}

func (m *DynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return m.CreateTableFunc(ctx, params, optFns...)
}

func (m *DynamoDBClient) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	return m.DeleteTableFunc(ctx, params, optFns...)
}

func (m *DynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return m.DescribeTableFunc(ctx, params, optFns...)
}

func (m *DynamoDBClient) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	return m.ListTablesFunc(ctx, params, optFns...)
}

func (m *DynamoDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return m.ScanFunc(ctx, params, optFns...)
}

func (m *DynamoDBClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	return m.BatchWriteItemFunc(ctx, params, optFns...)
}

func (m *DynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.PutItemFunc(ctx, params, optFns...)
}

// SQSClient is an expectation-based mock of the sqs operations the harness uses.
type SQSClient struct {
	CreateQueueFunc        Call[sqs.Options, sqs.CreateQueueInput, sqs.CreateQueueOutput]
	DeleteQueueFunc        Call[sqs.Options, sqs.DeleteQueueInput, sqs.DeleteQueueOutput]
	ListQueuesFunc         Call[sqs.Options, sqs.ListQueuesInput, sqs.ListQueuesOutput]
	GetQueueAttributesFunc Call[sqs.Options, sqs.GetQueueAttributesInput, sqs.GetQueueAttributesOutput]
	PurgeQueueFunc         Call[sqs.Options, sqs.PurgeQueueInput, sqs.PurgeQueueOutput]
	SendMessageFunc        Call[sqs.Options, sqs.SendMessageInput, sqs.SendMessageOutput]
}

// NewSQSClient creates an SQSClient with no expectations set.
func NewSQSClient(t testing.TB) *SQSClient {
	return &SQSClient{
		CreateQueueFunc:        unexpected[sqs.Options, sqs.CreateQueueInput, sqs.CreateQueueOutput](t, "CreateQueue"),
		DeleteQueueFunc:        unexpected[sqs.Options, sqs.DeleteQueueInput, sqs.DeleteQueueOutput](t, "DeleteQueue"),
		ListQueuesFunc:         unexpected[sqs.Options, sqs.ListQueuesInput, sqs.ListQueuesOutput](t, "ListQueues"),
		GetQueueAttributesFunc: unexpected[sqs.Options, sqs.GetQueueAttributesInput, sqs.GetQueueAttributesOutput](t, "GetQueueAttributes"),
		PurgeQueueFunc:         unexpected[sqs.Options, sqs.PurgeQueueInput, sqs.PurgeQueueOutput](t, "PurgeQueue"),
		SendMessageFunc:        unexpected[sqs.Options, sqs.SendMessageInput, sqs.SendMessageOutput](t, "SendMessage"),
	}
}

func (m *SQSClient) CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	return m.CreateQueueFunc(ctx, params, optFns...)
}

func (m *SQSClient) DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error) {
	return m.DeleteQueueFunc(ctx, params, optFns...)
}

func (m *SQSClient) ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	return m.ListQueuesFunc(ctx, params, optFns...)
}

func (m *SQSClient) GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	return m.GetQueueAttributesFunc(ctx, params, optFns...)
}

func (m *SQSClient) PurgeQueue(ctx context.Context, params *sqs.PurgeQueueInput, optFns ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error) {
	return m.PurgeQueueFunc(ctx, params, optFns...)
}

func (m *SQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	return m.SendMessageFunc(ctx, params, optFns...)
}

// LambdaClient is an expectation-based mock of the lambda operations the
// harness uses.
type LambdaClient struct {
	CreateFunctionFunc           Call[lambda.Options, lambda.CreateFunctionInput, lambda.CreateFunctionOutput]
	DeleteFunctionFunc           Call[lambda.Options, lambda.DeleteFunctionInput, lambda.DeleteFunctionOutput]
	GetFunctionFunc              Call[lambda.Options, lambda.GetFunctionInput, lambda.GetFunctionOutput]
	ListFunctionsFunc            Call[lambda.Options, lambda.ListFunctionsInput, lambda.ListFunctionsOutput]
	CreateEventSourceMappingFunc Call[lambda.Options, lambda.CreateEventSourceMappingInput, lambda.CreateEventSourceMappingOutput]
	DeleteEventSourceMappingFunc Call[lambda.Options, lambda.DeleteEventSourceMappingInput, lambda.DeleteEventSourceMappingOutput]
	ListEventSourceMappingsFunc  Call[lambda.Options, lambda.ListEventSourceMappingsInput, lambda.ListEventSourceMappingsOutput]
}

// NewLambdaClient creates a LambdaClient with no expectations set.
func NewLambdaClient(t testing.TB) *LambdaClient {
	return &LambdaClient{
		CreateFunctionFunc:           unexpected[lambda.Options, lambda.CreateFunctionInput, lambda.CreateFunctionOutput](t, "CreateFunction"),
		DeleteFunctionFunc:           unexpected[lambda.Options, lambda.DeleteFunctionInput, lambda.DeleteFunctionOutput](t, "DeleteFunction"),
		GetFunctionFunc:              unexpected[lambda.Options, lambda.GetFunctionInput, lambda.GetFunctionOutput](t, "GetFunction"),
		ListFunctionsFunc:            unexpected[lambda.Options, lambda.ListFunctionsInput, lambda.ListFunctionsOutput](t, "ListFunctions"),
		CreateEventSourceMappingFunc: unexpected[lambda.Options, lambda.CreateEventSourceMappingInput, lambda.CreateEventSourceMappingOutput](t, "CreateEventSourceMapping"),
		DeleteEventSourceMappingFunc: unexpected[lambda.Options, lambda.DeleteEventSourceMappingInput, lambda.DeleteEventSourceMappingOutput](t, "DeleteEventSourceMapping"),
		ListEventSourceMappingsFunc:  unexpected[lambda.Options, lambda.ListEventSourceMappingsInput, lambda.ListEventSourceMappingsOutput](t, "ListEventSourceMappings"),
	}
}

func (m *LambdaClient) CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	return m.CreateFunctionFunc(ctx, params, optFns...)
}

func (m *LambdaClient) DeleteFunction(ctx context.Context, params *lambda.DeleteFunctionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error) {
	return m.DeleteFunctionFunc(ctx, params, optFns...)
}

func (m *LambdaClient) GetFunction(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	return m.GetFunctionFunc(ctx, params, optFns...)
}

func (m *LambdaClient) ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error) {
	return m.ListFunctionsFunc(ctx, params, optFns...)
}

func (m *LambdaClient) CreateEventSourceMapping(ctx context.Context, params *lambda.CreateEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.CreateEventSourceMappingOutput, error) {
	return m.CreateEventSourceMappingFunc(ctx, params, optFns...)
}

func (m *LambdaClient) DeleteEventSourceMapping(ctx context.Context, params *lambda.DeleteEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.DeleteEventSourceMappingOutput, error) {
	return m.DeleteEventSourceMappingFunc(ctx, params, optFns...)
}

func (m *LambdaClient) ListEventSourceMappings(ctx context.Context, params *lambda.ListEventSourceMappingsInput, optFns ...func(*lambda.Options)) (*lambda.ListEventSourceMappingsOutput, error) {
	return m.ListEventSourceMappingsFunc(ctx, params, optFns...)
}
