// Package awsmock provides test doubles for the AWS clients the harness drives.
//
// # Mock Clients
//
// DynamoDBClient, SQSClient and LambdaClient are expectation-based mocks: every
// operation is a func field. Fields left at their default fail the test when
// called, so a test only sets the operations it expects:
//
//	mock := awsmock.NewSQSClient(t)
//	mock.PurgeQueueFunc = func(ctx context.Context, params *sqs.PurgeQueueInput, optFns ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error) {
//		return &sqs.PurgeQueueOutput{}, nil
//	}
//
// # In-memory DynamoDB
//
// Store is a small in-memory DynamoDB with enough behavior for the table
// lifecycle: tables with key schemas, scans with limits and start keys,
// batch writes with the 25 request cap, and injectable unprocessed items.
//
//	store := awsmock.NewStore()
//	err := dynamo.Setup(ctx, store, fixture.Records())
//	// store.Count("items") == 25
package awsmock
