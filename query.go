package testapi

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// QueryMarshaler can marshal itself into a dynamodb query request.
type QueryMarshaler interface {
	MarshalQuery() (*dynamodb.QueryInput, error)
}

// QueryByParty is a QueryMarshaler that looks up items originating from a
// party through the items table's party index.
type QueryByParty struct {
	PartyID        string // The originating party
	EventIDPrefix  string // Optional begins_with filter on the event id
	Limit          int    // Maximum number of items to return
	StartKey       Record // Exclusive start key for pagination
	SortDescending bool   // Scan direction (default: false)
}

// MarshalQuery implements QueryMarshaler for QueryByParty.
func (q *QueryByParty) MarshalQuery() (*dynamodb.QueryInput, error) {
	if q.PartyID == "" {
		return nil, fmt.Errorf("party id is required")
	}

	keyCondition := expression.Key(AttributeNamePartyID).Equal(expression.Value(q.PartyID))
	if q.EventIDPrefix != "" {
		keyCondition = keyCondition.And(expression.Key(AttributeNameEventID).BeginsWith(q.EventIDPrefix))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(TableItems),
		IndexName:                 aws.String(IndexItemsByParty),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!q.SortDescending),
	}
	applyPaging(input, q.Limit, q.StartKey)

	return input, nil
}

// QueryInverted is a QueryMarshaler that performs a reverse lookup on the
// filters table: records are found by their sort key.
type QueryInverted struct {
	SortKey  string // The filters table sort key to look up
	Limit    int    // Maximum number of keys to return
	StartKey Record // Exclusive start key for pagination
}

// MarshalQuery implements QueryMarshaler for QueryInverted.
func (q *QueryInverted) MarshalQuery() (*dynamodb.QueryInput, error) {
	if q.SortKey == "" {
		return nil, fmt.Errorf("sort key is required")
	}

	keyCondition := expression.Key(AttributeNameSK).Equal(expression.Value(q.SortKey))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(TableFilters),
		IndexName:                 aws.String(IndexFiltersInverted),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	applyPaging(input, q.Limit, q.StartKey)

	return input, nil
}

func applyPaging(input *dynamodb.QueryInput, limit int, startKey Record) {
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}
	if len(startKey) > 0 {
		input.ExclusiveStartKey = startKey
	}
}

// KeyProjection builds a projection expression selecting only the given key
// attributes. It is used to keep full-table scans small.
func KeyProjection(keys KeyNames) (expression.Expression, error) {
	attrs := keys.Attributes()
	names := make([]expression.NameBuilder, 0, len(attrs))
	for _, attr := range attrs {
		names = append(names, expression.Name(attr))
	}

	proj := expression.NamesList(names[0], names[1:]...)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build projection: %w", err)
	}
	return expr, nil
}
