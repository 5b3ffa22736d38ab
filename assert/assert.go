// Package assert provides fluent assertions on the state of the backend a
// harness runs: its tables, their records, the queue and the function.
//
// Every assertion reports failures through t.Errorf and returns its receiver
// so checks can be chained.
//
//	assert.Tables(t, h.Clients.DynamoDB).
//		Exactly(testapi.TableNames()...).
//		HasKeySchema(testapi.TableItems, testapi.DefaultKeyNames)
//
//	assert.Table(t, h.Clients.DynamoDB, testapi.TableItems).HasCount(fixture.Size)
//
//	assert.Queue(t, h.Clients.SQS, h.QueueURL()).IsEmpty()
package assert

import (
	"context"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/dynamo"
	"github.com/blitzfilter/test-api/item"
)

// Timeout bounds each request an assertion makes.
var Timeout = 30 * time.Second

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), Timeout)
}

// TablesAPI lists and describes tables.
type TablesAPI interface {
	dynamodb.ListTablesAPIClient
	dynamodb.DescribeTableAPIClient
}

// TablesAssertion checks the set of tables.
type TablesAssertion struct {
	t      testing.TB
	client TablesAPI
	names  []string
}

// Tables lists the tables of client. A failing list is reported and leaves an
// empty set.
func Tables(t testing.TB, client TablesAPI) *TablesAssertion {
	t.Helper()
	ctx, cancel := requestContext()
	defer cancel()

	names, err := dynamo.ListTables(ctx, client)
	if err != nil {
		t.Errorf("list tables: %v", err)
	}
	slices.Sort(names)
	return &TablesAssertion{t: t, client: client, names: names}
}

// Exactly asserts that the tables are exactly names, in any order.
func (a *TablesAssertion) Exactly(names ...string) *TablesAssertion {
	a.t.Helper()
	want := slices.Clone(names)
	slices.Sort(want)
	if !slices.Equal(want, a.names) {
		a.t.Errorf("expected tables %v, got %v", want, a.names)
	}
	return a
}

// Contains asserts that a table named name exists.
func (a *TablesAssertion) Contains(name string) *TablesAssertion {
	a.t.Helper()
	if !slices.Contains(a.names, name) {
		a.t.Errorf("expected table %s in %v", name, a.names)
	}
	return a
}

// HasKeySchema asserts that table name is keyed by keys.
func (a *TablesAssertion) HasKeySchema(name string, keys testapi.KeyNames) *TablesAssertion {
	a.t.Helper()
	ctx, cancel := requestContext()
	defer cancel()

	out, err := a.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		a.t.Errorf("describe table %s: %v", name, err)
		return a
	}
	if got := testapi.KeyNamesOf(out.Table.KeySchema); got != keys {
		a.t.Errorf("expected table %s keyed by %+v, got %+v", name, keys, got)
	}
	return a
}

// HasIndex asserts that table name has a global secondary index called index.
func (a *TablesAssertion) HasIndex(name, index string) *TablesAssertion {
	a.t.Helper()
	ctx, cancel := requestContext()
	defer cancel()

	out, err := a.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		a.t.Errorf("describe table %s: %v", name, err)
		return a
	}
	for _, gsi := range out.Table.GlobalSecondaryIndexes {
		if aws.ToString(gsi.IndexName) == index {
			return a
		}
	}
	a.t.Errorf("expected table %s to have index %s", name, index)
	return a
}

// TableAssertion checks the contents of one table.
type TableAssertion struct {
	t      testing.TB
	client dynamodb.ScanAPIClient
	name   string
}

// Table creates a TableAssertion for table name.
func Table(t testing.TB, client dynamodb.ScanAPIClient, name string) *TableAssertion {
	return &TableAssertion{t: t, client: client, name: name}
}

// HasCount asserts that the table holds expected records.
func (a *TableAssertion) HasCount(expected int) *TableAssertion {
	a.t.Helper()
	ctx, cancel := requestContext()
	defer cancel()

	var count int
	p := dynamodb.NewScanPaginator(a.client, &dynamodb.ScanInput{
		TableName: aws.String(a.name),
		Select:    types.SelectCount,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			a.t.Errorf("scan %s: %v", a.name, err)
			return a
		}
		count += int(page.Count)
	}
	if count != expected {
		a.t.Errorf("expected %d records in %s, got %d", expected, a.name, count)
	}
	return a
}

// IsEmpty asserts that the table holds no records.
func (a *TableAssertion) IsEmpty() *TableAssertion {
	return a.HasCount(0)
}

// Items scans the whole table and returns an ItemsAssertion over its records.
func (a *TableAssertion) Items() *ItemsAssertion {
	a.t.Helper()
	ctx, cancel := requestContext()
	defer cancel()

	var records []testapi.Record
	p := dynamodb.NewScanPaginator(a.client, &dynamodb.ScanInput{TableName: aws.String(a.name)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			a.t.Errorf("scan %s: %v", a.name, err)
			break
		}
		records = append(records, page.Items...)
	}
	return Items(a.t, records)
}

// ItemsAssertion checks a set of items table records.
type ItemsAssertion struct {
	t       testing.TB
	records []testapi.Record
}

// Items creates an ItemsAssertion over records.
func Items(t testing.TB, records []testapi.Record) *ItemsAssertion {
	return &ItemsAssertion{t: t, records: records}
}

// HasCount asserts the number of records.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	a.t.Helper()
	if len(a.records) != expected {
		a.t.Errorf("expected %d records, got %d", expected, len(a.records))
	}
	return a
}

// ContainsItem asserts that one of the records belongs to the item with the
// given id.
func (a *ItemsAssertion) ContainsItem(itemID string) *ItemsAssertion {
	a.t.Helper()
	pk := item.Model{ItemID: itemID}.PartitionKey()
	for _, record := range a.records {
		if s, ok := record[testapi.AttributeNamePK].(*types.AttributeValueMemberS); ok && s.Value == pk {
			return a
		}
	}
	a.t.Errorf("expected to find item %s", itemID)
	return a
}

// HasIntactHashes asserts that every record decodes into an item whose stored
// hash matches its content.
func (a *ItemsAssertion) HasIntactHashes() *ItemsAssertion {
	a.t.Helper()
	for _, record := range a.records {
		m, err := item.UnmarshalRecord(record)
		if err != nil {
			a.t.Errorf("decode record: %v", err)
			continue
		}
		if m.Hash != m.ComputeHash() {
			a.t.Errorf("item %s: stored hash %s does not match content hash %s", m.ItemID, m.Hash, m.ComputeHash())
		}
	}
	return a
}

// QueueAttributesAPI reads queue attributes.
type QueueAttributesAPI interface {
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// QueueAssertion checks a queue.
type QueueAssertion struct {
	t      testing.TB
	client QueueAttributesAPI
	url    string
}

// Queue creates a QueueAssertion for the queue at url.
func Queue(t testing.TB, client QueueAttributesAPI, url string) *QueueAssertion {
	return &QueueAssertion{t: t, client: client, url: url}
}

// HasApproximateCount asserts the approximate number of visible messages.
func (a *QueueAssertion) HasApproximateCount(expected int) *QueueAssertion {
	a.t.Helper()
	ctx, cancel := requestContext()
	defer cancel()

	name := sqstypes.QueueAttributeNameApproximateNumberOfMessages
	out, err := a.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(a.url),
		AttributeNames: []sqstypes.QueueAttributeName{name},
	})
	if err != nil {
		a.t.Errorf("get attributes of %s: %v", a.url, err)
		return a
	}
	got, err := strconv.Atoi(out.Attributes[string(name)])
	if err != nil {
		a.t.Errorf("queue %s: invalid message count %q", a.url, out.Attributes[string(name)])
		return a
	}
	if got != expected {
		a.t.Errorf("expected %d messages in %s, got %d", expected, a.url, got)
	}
	return a
}

// IsEmpty asserts that the queue holds no visible messages.
func (a *QueueAssertion) IsEmpty() *QueueAssertion {
	return a.HasApproximateCount(0)
}

// FunctionAssertion checks a function.
type FunctionAssertion struct {
	t      testing.TB
	client lambda.GetFunctionAPIClient
	name   string
}

// Function creates a FunctionAssertion for the function called name.
func Function(t testing.TB, client lambda.GetFunctionAPIClient, name string) *FunctionAssertion {
	return &FunctionAssertion{t: t, client: client, name: name}
}

func (a *FunctionAssertion) get() *lambdatypes.FunctionConfiguration {
	a.t.Helper()
	ctx, cancel := requestContext()
	defer cancel()

	out, err := a.client.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(a.name)})
	if err != nil {
		a.t.Errorf("get function %s: %v", a.name, err)
		return nil
	}
	return out.Configuration
}

// Exists asserts that the function exists.
func (a *FunctionAssertion) Exists() *FunctionAssertion {
	a.t.Helper()
	a.get()
	return a
}

// IsActive asserts that the function exists and is active.
func (a *FunctionAssertion) IsActive() *FunctionAssertion {
	a.t.Helper()
	cfg := a.get()
	if cfg != nil && cfg.State != lambdatypes.StateActive {
		a.t.Errorf("expected function %s to be active, got %s", a.name, cfg.State)
	}
	return a
}
