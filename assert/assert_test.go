package assert

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/awsmock"
	"github.com/blitzfilter/test-api/dynamo"
	"github.com/blitzfilter/test-api/fixture"
)

// recorder collects failures instead of failing the test.
type recorder struct {
	testing.TB
	failures []string
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.failures = append(r.failures, format)
}

func (r *recorder) expectFailures(t *testing.T, n int) {
	t.Helper()
	if len(r.failures) != n {
		t.Fatalf("expected %d failures, got %d: %v", n, len(r.failures), r.failures)
	}
}

func seededStore(t *testing.T) *awsmock.Store {
	t.Helper()
	store := awsmock.NewStore()
	if err := dynamo.Setup(context.Background(), store, fixture.Records(), dynamo.WithProvisionTimeout(time.Second)); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return store
}

func TestTables(t *testing.T) {
	store := seededStore(t)

	rec := &recorder{TB: t}
	Tables(rec, store).
		Exactly(testapi.TableNames()...).
		Contains(testapi.TableItems).
		HasKeySchema(testapi.TableItems, testapi.DefaultKeyNames).
		HasIndex(testapi.TableItems, testapi.IndexItemsByParty)
	rec.expectFailures(t, 0)
}

func TestTables_Failures(t *testing.T) {
	store := seededStore(t)

	rec := &recorder{TB: t}
	Tables(rec, store).
		Exactly(testapi.TableItems).
		Contains("orders").
		HasKeySchema(testapi.TableItems, testapi.KeyNames{Hash: "id"}).
		HasKeySchema("orders", testapi.DefaultKeyNames)
	rec.expectFailures(t, 4)
}

func TestTable_HasCount(t *testing.T) {
	store := seededStore(t)

	rec := &recorder{TB: t}
	Table(rec, store, testapi.TableItems).HasCount(fixture.Size)
	Table(rec, store, testapi.TableParties).IsEmpty()
	rec.expectFailures(t, 0)

	Table(rec, store, testapi.TableItems).HasCount(fixture.Size + 1)
	Table(rec, store, "missing").HasCount(0)
	rec.expectFailures(t, 2)
}

func TestTable_Items(t *testing.T) {
	store := seededStore(t)
	first := fixture.Items()[0]

	rec := &recorder{TB: t}
	Table(rec, store, testapi.TableItems).Items().
		HasCount(fixture.Size).
		ContainsItem(first.ItemID).
		HasIntactHashes()
	rec.expectFailures(t, 0)

	Items(rec, nil).ContainsItem(first.ItemID)
	rec.expectFailures(t, 1)
}

func TestItems_TamperedHash(t *testing.T) {
	record := fixture.Records()[0]
	record[testapi.AttributeNameHash] = fixture.Records()[1][testapi.AttributeNameHash]

	rec := &recorder{TB: t}
	Items(rec, []testapi.Record{record}).HasIntactHashes()
	rec.expectFailures(t, 1)
}

func TestQueue(t *testing.T) {
	count := "0"
	client := awsmock.NewSQSClient(t)
	client.GetQueueAttributesFunc = func(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
		return &sqs.GetQueueAttributesOutput{Attributes: map[string]string{"ApproximateNumberOfMessages": count}}, nil
	}

	rec := &recorder{TB: t}
	Queue(rec, client, "http://localhost:4566/000000000000/q").IsEmpty()
	rec.expectFailures(t, 0)

	count = "3"
	Queue(rec, client, "http://localhost:4566/000000000000/q").HasApproximateCount(3).IsEmpty()
	rec.expectFailures(t, 1)
}

func TestFunction(t *testing.T) {
	state := lambdatypes.StateActive
	client := awsmock.NewLambdaClient(t)
	client.GetFunctionFunc = func(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
		if aws.ToString(params.FunctionName) != "fn" {
			return nil, &lambdatypes.ResourceNotFoundException{Message: aws.String("not found")}
		}
		return &lambda.GetFunctionOutput{Configuration: &lambdatypes.FunctionConfiguration{
			FunctionName: params.FunctionName,
			State:        state,
		}}, nil
	}

	rec := &recorder{TB: t}
	Function(rec, client, "fn").Exists().IsActive()
	rec.expectFailures(t, 0)

	state = lambdatypes.StatePending
	Function(rec, client, "fn").IsActive()
	Function(rec, client, "other").Exists()
	rec.expectFailures(t, 2)
}
