package awsmock

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	testapi "github.com/blitzfilter/test-api"
)

// Store is an in-memory DynamoDB. It is safe for concurrent use.
type Store struct {
	// UnprocessedRounds makes the next n BatchWriteItem calls leave the last
	// request for each table unprocessed. Tables without requests are skipped.
	UnprocessedRounds int

	mu     sync.Mutex
	tables map[string]*table
	calls  map[string]int
}

type table struct {
	def     *dynamodb.CreateTableInput
	keys    testapi.KeyNames
	created time.Time
	records map[string]testapi.Record
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		tables: make(map[string]*table),
		calls:  make(map[string]int),
	}
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Count returns the number of records in the named table, or -1 if it does not exist.
func (s *Store) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return -1
	}
	return len(t.records)
}

// Records returns the records of the named table in key order.
func (s *Store) Records(name string) []testapi.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	out := make([]testapi.Record, 0, len(t.records))
	for _, k := range t.sortedKeys() {
		out = append(out, t.records[k])
	}
	return out
}

// TableNames returns the names of all tables in order.
func (s *Store) TableNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tableNames()
}

func (s *Store) tableNames() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) track(op string) {
	s.calls[op]++
}

func (s *Store) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("CreateTable")

	name := aws.ToString(params.TableName)
	if name == "" {
		return nil, validation("table name is required")
	}
	if _, ok := s.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}

	t := &table{
		def:     params,
		keys:    testapi.KeyNamesOf(params.KeySchema),
		created: time.Now(),
		records: make(map[string]testapi.Record),
	}
	s.tables[name] = t
	return &dynamodb.CreateTableOutput{TableDescription: t.describe(name)}, nil
}

func (s *Store) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("DeleteTable")

	name := aws.ToString(params.TableName)
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	desc := t.describe(name)
	desc.TableStatus = types.TableStatusDeleting
	delete(s.tables, name)
	return &dynamodb.DeleteTableOutput{TableDescription: desc}, nil
}

func (s *Store) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("DescribeTable")

	name := aws.ToString(params.TableName)
	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: t.describe(name)}, nil
}

func (s *Store) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("ListTables")

	names := s.tableNames()
	if start := aws.ToString(params.ExclusiveStartTableName); start != "" {
		i := sort.SearchStrings(names, start)
		if i < len(names) && names[i] == start {
			i++
		}
		names = names[i:]
	}

	out := &dynamodb.ListTablesOutput{}
	if limit := int(aws.ToInt32(params.Limit)); limit > 0 && len(names) > limit {
		names = names[:limit]
		out.LastEvaluatedTableName = aws.String(names[limit-1])
	}
	out.TableNames = names
	return out, nil
}

// Scan walks a table in key order. Limit caps the number of records evaluated;
// LastEvaluatedKey is set only when records remain.
func (s *Store) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("Scan")

	t, err := s.table(aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}

	keys := t.sortedKeys()
	if len(params.ExclusiveStartKey) > 0 {
		start, err := t.keyOf(params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		keys = keys[sort.Search(len(keys), func(i int) bool { return keys[i] > start }):]
	}

	limit := int(aws.ToInt32(params.Limit))
	more := limit > 0 && len(keys) > limit
	if more {
		keys = keys[:limit]
	}

	projection := resolveProjection(aws.ToString(params.ProjectionExpression), params.ExpressionAttributeNames)
	out := &dynamodb.ScanOutput{
		Count:        int32(len(keys)),
		ScannedCount: int32(len(keys)),
	}
	if params.Select != types.SelectCount {
		out.Items = make([]map[string]types.AttributeValue, 0, len(keys))
		for _, k := range keys {
			out.Items = append(out.Items, project(t.records[k], projection))
		}
	}
	if more {
		out.LastEvaluatedKey = t.keys.Key(t.records[keys[len(keys)-1]])
	}
	return out, nil
}

func (s *Store) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("BatchWriteItem")

	var total int
	for name, requests := range params.RequestItems {
		if _, err := s.table(name); err != nil {
			return nil, err
		}
		total += len(requests)
	}
	if total == 0 {
		return nil, validation("request items must not be empty")
	}
	if total > testapi.MaxBatchSize {
		return nil, validation(fmt.Sprintf("too many items requested for the BatchWriteItem call: %d", total))
	}

	out := &dynamodb.BatchWriteItemOutput{
		UnprocessedItems: make(map[string][]types.WriteRequest),
	}
	withhold := s.UnprocessedRounds > 0
	if withhold {
		s.UnprocessedRounds--
	}

	for name, requests := range params.RequestItems {
		t := s.tables[name]
		if withhold && len(requests) > 0 {
			out.UnprocessedItems[name] = requests[len(requests)-1:]
			requests = requests[:len(requests)-1]
		}
		for _, req := range requests {
			if err := t.apply(req); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (s *Store) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("PutItem")

	t, err := s.table(aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	if err := t.apply(types.WriteRequest{PutRequest: &types.PutRequest{Item: params.Item}}); err != nil {
		return nil, err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (s *Store) table(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Cannot do operations on a non-existent table: " + name)}
	}
	return t, nil
}

func (t *table) apply(req types.WriteRequest) error {
	switch {
	case req.PutRequest != nil:
		k, err := t.keyOf(req.PutRequest.Item)
		if err != nil {
			return err
		}
		t.records[k] = clone(req.PutRequest.Item)
	case req.DeleteRequest != nil:
		k, err := t.keyOf(req.DeleteRequest.Key)
		if err != nil {
			return err
		}
		delete(t.records, k)
	default:
		return validation("write request has neither put nor delete")
	}
	return nil
}

// keyOf renders the primary key of record so that string order matches key order.
func (t *table) keyOf(record testapi.Record) (string, error) {
	parts := make([]string, 0, 2)
	for _, name := range t.keys.Attributes() {
		v, ok := record[name]
		if !ok {
			return "", validation("One of the required keys was not given a value: " + name)
		}
		s, err := scalar(v)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\x00"), nil
}

func (t *table) sortedKeys() []string {
	keys := make([]string, 0, len(t.records))
	for k := range t.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *table) describe(name string) *types.TableDescription {
	desc := &types.TableDescription{
		TableName:            aws.String(name),
		TableArn:             aws.String("arn:aws:dynamodb:eu-central-1:000000000000:table/" + name),
		TableStatus:          types.TableStatusActive,
		KeySchema:            t.def.KeySchema,
		AttributeDefinitions: t.def.AttributeDefinitions,
		CreationDateTime:     aws.Time(t.created),
		ItemCount:            aws.Int64(int64(len(t.records))),
		BillingModeSummary:   &types.BillingModeSummary{BillingMode: t.def.BillingMode},
		TableClassSummary:    &types.TableClassSummary{TableClass: t.def.TableClass},
	}
	for _, gsi := range t.def.GlobalSecondaryIndexes {
		desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
			IndexName:   gsi.IndexName,
			KeySchema:   gsi.KeySchema,
			Projection:  gsi.Projection,
			IndexStatus: types.IndexStatusActive,
		})
	}
	return desc
}

func scalar(v types.AttributeValue) (string, error) {
	switch v := v.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return v.Value, nil
	case *types.AttributeValueMemberB:
		return base64.StdEncoding.EncodeToString(v.Value), nil
	default:
		return "", validation(fmt.Sprintf("key attribute has unsupported type %T", v))
	}
}

func resolveProjection(expr string, names map[string]string) []string {
	if expr == "" {
		return nil
	}
	var attrs []string
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if resolved, ok := names[part]; ok {
			part = resolved
		}
		attrs = append(attrs, part)
	}
	return attrs
}

func project(record testapi.Record, attrs []string) testapi.Record {
	if attrs == nil {
		return clone(record)
	}
	out := make(testapi.Record, len(attrs))
	for _, a := range attrs {
		if v, ok := record[a]; ok {
			out[a] = v
		}
	}
	return out
}

func clone(record testapi.Record) testapi.Record {
	out := make(testapi.Record, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}

func validation(msg string) error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: msg}
}
