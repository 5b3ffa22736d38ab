// Package testapi is a test-support harness for the item ingestion pipeline
// (queue → function → key-value store).
//
// It runs a LocalStack container emulating DynamoDB, SQS and Lambda, provisions
// the pipeline's tables, seeds them with a deterministic fixture and wraps test
// bodies with a setup/reset cycle so every test observes the same baseline.
//
// # Tables
//
// The harness provisions three tables, all keyed by string attributes:
//   - parties: pk
//   - items: pk, sk; index gsi_1_hash_index on (party_id, event_id) projecting hash
//   - filters: pk, sk; index gsi_1_inverted_keys on (sk, pk), keys only
//
// This package holds the table definitions and the batching helpers shared by the
// dynamo and ingestion packages:
//
//	for _, def := range testapi.TableDefinitions() {
//	    _, err := ddb.CreateTable(ctx, def)
//	}
//
//	records, err := testapi.MarshalRecords(items)
//	for _, batch := range testapi.MarshalPutBatches(testapi.TableItems, records) {
//	    _, err = ddb.BatchWriteItem(ctx, batch)
//	}
//
// # Test harness
//
// Most callers only need the harness package:
//
//	func TestMain(m *testing.M) {
//	    harness.Main(m)
//	}
//
//	func TestSomething(t *testing.T) {
//	    harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
//	        out, err := h.Clients.DynamoDB.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(testapi.TableItems)})
//	        // ...
//	    })
//	}
//
// # Querying
//
// QueryByParty and QueryInverted marshal lookups against the secondary indexes:
//
//	input, err := (&testapi.QueryByParty{PartyID: "https://example.com"}).MarshalQuery()
//	out, err := ddb.Query(ctx, input)
package testapi
