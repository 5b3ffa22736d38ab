package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	testapi "github.com/blitzfilter/test-api"
)

// Eraser deletes every record of a table by scanning it page by page and
// batch-deleting each page's keys. It does not checkpoint: an interrupted
// erase leaves the table partially erased.
type Eraser struct {
	client API
	writer *Writer
	opts   Options
}

// NewEraser creates an Eraser.
func NewEraser(client API, opts ...Option) *Eraser {
	o := newOptions(opts)
	return &Eraser{
		client: client,
		writer: &Writer{client: client, opts: o},
		opts:   o,
	}
}

// EraseAll erases every table and returns the total number of deleted records.
func (e *Eraser) EraseAll(ctx context.Context) (int, error) {
	names, err := ListTables(ctx, e.client)
	if err != nil {
		return 0, err
	}

	var total int
	for _, name := range names {
		n, err := e.Erase(ctx, name)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Erase deletes every record of table and returns how many were deleted.
func (e *Eraser) Erase(ctx context.Context, table string) (int, error) {
	desc, err := e.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return 0, testapi.Fail("describe-table", table, err)
	}
	keys := testapi.KeyNamesOf(desc.Table.KeySchema)

	proj, err := testapi.KeyProjection(keys)
	if err != nil {
		return 0, testapi.Fail("scan", table, err)
	}

	input := &dynamodb.ScanInput{
		TableName:                aws.String(table),
		ProjectionExpression:     proj.Projection(),
		ExpressionAttributeNames: proj.Names(),
	}
	if e.opts.ScanPageSize > 0 {
		input.Limit = aws.Int32(int32(e.opts.ScanPageSize))
	}

	var deleted, pages int
	for {
		page, err := e.client.Scan(ctx, input)
		if err != nil {
			return deleted, testapi.Fail("scan", table, err)
		}
		pages++

		pageKeys := make([]testapi.Record, 0, len(page.Items))
		for _, record := range page.Items {
			pageKeys = append(pageKeys, keys.Key(record))
		}
		for _, batch := range testapi.MarshalDeleteBatches(table, pageKeys) {
			if err := e.writer.Send(ctx, batch); err != nil {
				return deleted, err
			}
			deleted += len(batch.RequestItems[table])
		}

		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}

	e.opts.Logger.Debug("erased table",
		zap.String("table", table),
		zap.Int("deleted", deleted),
		zap.Int("pages", pages))
	return deleted, nil
}
