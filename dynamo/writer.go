package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/item"
)

// BatchWriter sends batch write requests.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Writer writes records to a table in batches of at most 25.
type Writer struct {
	client BatchWriter
	opts   Options
}

// NewWriter creates a Writer.
func NewWriter(client BatchWriter, opts ...Option) *Writer {
	return &Writer{client: client, opts: newOptions(opts)}
}

// Write puts records into table, sending ceil(len(records)/25) batches in order.
// Writing nothing is a no-op.
func (w *Writer) Write(ctx context.Context, table string, records []testapi.Record) error {
	for i, batch := range testapi.MarshalPutBatches(table, records) {
		if err := w.Send(ctx, batch); err != nil {
			return err
		}
		w.opts.Logger.Debug("wrote batch",
			zap.String("table", table),
			zap.Int("batch", i),
			zap.Int("size", len(batch.RequestItems[table])))
	}
	return nil
}

// WriteItems validates and marshals models and writes them to the items table.
func (w *Writer) WriteItems(ctx context.Context, models []item.Model) error {
	records, err := item.MarshalRecords(models)
	if err != nil {
		return testapi.Fail("batch-write", testapi.TableItems, err)
	}
	return w.Write(ctx, testapi.TableItems, records)
}

// Send issues one batch write. Requests the backend reports as unprocessed are
// re-sent with backoff; once retries are spent Send fails with
// testapi.ErrUnprocessed. A request error is returned without retrying.
func (w *Writer) Send(ctx context.Context, batch *dynamodb.BatchWriteItemInput) error {
	pending := batch.RequestItems
	resource := tableOf(pending)

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		out, err := w.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if countRequests(out.UnprocessedItems) == 0 {
			return struct{}{}, nil
		}

		pending = out.UnprocessedItems
		w.opts.Logger.Warn("unprocessed batch requests",
			zap.String("table", resource),
			zap.Int("attempt", attempt),
			zap.Int("pending", countRequests(pending)))
		return struct{}{}, testapi.ErrUnprocessed
	},
		backoff.WithBackOff(w.opts.NewBackOff()),
		backoff.WithMaxTries(uint(w.opts.MaxRetries+1)),
	)
	return testapi.Fail("batch-write", resource, err)
}

func countRequests(items map[string][]types.WriteRequest) int {
	var n int
	for _, requests := range items {
		n += len(requests)
	}
	return n
}

// tableOf names the table of a single-table batch.
func tableOf(items map[string][]types.WriteRequest) string {
	if len(items) != 1 {
		return ""
	}
	for name := range items {
		return name
	}
	return ""
}
