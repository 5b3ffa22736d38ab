package testapi

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// MaxBatchSize is the maximum number of items allowed in a DynamoDB batch operation.
	MaxBatchSize = 25
)

// Table names.
const (
	TableParties = "parties"
	TableItems   = "items"
	TableFilters = "filters"
)

// Secondary index names.
const (
	IndexItemsByParty    = "gsi_1_hash_index"
	IndexFiltersInverted = "gsi_1_inverted_keys"
)

// Attribute names shared by all tables.
const (
	AttributeNamePK      = "pk"
	AttributeNameSK      = "sk"
	AttributeNamePartyID = "party_id"
	AttributeNameEventID = "event_id"
	AttributeNameHash    = "hash"
)

// Record is an alias for the dynamodb attribute value map.
type Record = map[string]types.AttributeValue

// TableNames returns the names of every table the harness provisions.
func TableNames() []string {
	return []string{TableParties, TableItems, TableFilters}
}

// TableDefinitions returns the create requests for the parties, items and
// filters tables, in that order. Each call returns fresh inputs.
func TableDefinitions() []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		partiesTable(),
		itemsTable(),
		filtersTable(),
	}
}

// TableDefinition returns the create request for the named table, or nil if the
// harness does not know about it.
func TableDefinition(name string) *dynamodb.CreateTableInput {
	for _, def := range TableDefinitions() {
		if aws.ToString(def.TableName) == name {
			return def
		}
	}
	return nil
}

func partiesTable() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(TableParties),
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttribute(AttributeNamePK),
		},
		KeySchema: []types.KeySchemaElement{
			hashKey(AttributeNamePK),
		},
		BillingMode: types.BillingModePayPerRequest,
		TableClass:  types.TableClassStandard,
	}
}

func itemsTable() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(TableItems),
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttribute(AttributeNamePK),
			stringAttribute(AttributeNameSK),
			stringAttribute(AttributeNamePartyID),
			stringAttribute(AttributeNameEventID),
		},
		KeySchema: []types.KeySchemaElement{
			hashKey(AttributeNamePK),
			rangeKey(AttributeNameSK),
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(IndexItemsByParty),
				KeySchema: []types.KeySchemaElement{
					hashKey(AttributeNamePartyID),
					rangeKey(AttributeNameEventID),
				},
				Projection: &types.Projection{
					ProjectionType:   types.ProjectionTypeInclude,
					NonKeyAttributes: []string{AttributeNameHash},
				},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
		TableClass:  types.TableClassStandard,
	}
}

func filtersTable() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(TableFilters),
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttribute(AttributeNamePK),
			stringAttribute(AttributeNameSK),
		},
		KeySchema: []types.KeySchemaElement{
			hashKey(AttributeNamePK),
			rangeKey(AttributeNameSK),
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				// inverted: the table's sort key partitions the index
				IndexName: aws.String(IndexFiltersInverted),
				KeySchema: []types.KeySchemaElement{
					hashKey(AttributeNameSK),
					rangeKey(AttributeNamePK),
				},
				Projection: &types.Projection{
					ProjectionType: types.ProjectionTypeKeysOnly,
				},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
		TableClass:  types.TableClassStandard,
	}
}

func stringAttribute(name string) types.AttributeDefinition {
	return types.AttributeDefinition{
		AttributeName: aws.String(name),
		AttributeType: types.ScalarAttributeTypeS,
	}
}

func hashKey(name string) types.KeySchemaElement {
	return types.KeySchemaElement{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}
}

func rangeKey(name string) types.KeySchemaElement {
	return types.KeySchemaElement{AttributeName: aws.String(name), KeyType: types.KeyTypeRange}
}

// Chunk splits in into consecutive slices of at most size elements. The last
// chunk holds the remainder. A non-positive size yields a single chunk.
func Chunk[T any](in []T, size int) [][]T {
	if len(in) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{in}
	}

	chunks := make([][]T, 0, (len(in)+size-1)/size)
	for i := 0; i < len(in); i += size {
		end := min(i+size, len(in))
		chunks = append(chunks, in[i:end])
	}
	return chunks
}

// MarshalRecords marshals each value into a dynamodb record.
func MarshalRecords[T any](in []T) ([]Record, error) {
	records := make([]Record, 0, len(in))
	for i, v := range in {
		record, err := attributevalue.MarshalMap(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// MarshalPutBatches marshals the records into batch write put requests against
// table. Since there is a limit on how many requests can be contained in a single
// input, the requests are chunked in sizes of 25 or less.
func MarshalPutBatches(table string, records []Record) []*dynamodb.BatchWriteItemInput {
	requests := make([]types.WriteRequest, 0, len(records))
	for _, record := range records {
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: record},
		})
	}
	return marshalBatches(table, requests)
}

// MarshalDeleteBatches marshals the primary keys into batch write delete requests
// against table, chunked in sizes of 25 or less.
func MarshalDeleteBatches(table string, keys []Record) []*dynamodb.BatchWriteItemInput {
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: key},
		})
	}
	return marshalBatches(table, requests)
}

func marshalBatches(table string, requests []types.WriteRequest) []*dynamodb.BatchWriteItemInput {
	var batches []*dynamodb.BatchWriteItemInput
	for _, chunk := range Chunk(requests, MaxBatchSize) {
		batches = append(batches, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				table: chunk,
			},
		})
	}
	return batches
}
