package harness_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/require"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/assert"
	"github.com/blitzfilter/test-api/dynamo"
	"github.com/blitzfilter/test-api/fixture"
	"github.com/blitzfilter/test-api/harness"
	"github.com/blitzfilter/test-api/item"
)

func TestDynamoDB_Endpoint(t *testing.T) {
	harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
		require.NotEmpty(t, h.Env.Host())
		if h.Config.LocalStack.HostPort != 0 {
			require.Equal(t, strconv.Itoa(h.Config.LocalStack.HostPort), h.Env.Port())
		}
		require.Equal(t, "http://"+h.Env.Host()+":"+h.Env.Port(), h.Env.Endpoint())
	})
}

func TestDynamoDB_ListTables(t *testing.T) {
	harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
		out, err := h.Clients.DynamoDB.ListTables(context.Background(), &dynamodb.ListTablesInput{})
		require.NoError(t, err)
		require.Len(t, out.TableNames, len(testapi.TableNames()))
	})
}

func TestDynamoDB_Tables(t *testing.T) {
	harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
		tables := assert.Tables(t, h.Clients.DynamoDB).Exactly(testapi.TableNames()...)
		for _, name := range testapi.TableNames() {
			tables.HasKeySchema(name, testapi.KeyNamesOf(testapi.TableDefinition(name).KeySchema))
		}
		tables.HasIndex(testapi.TableItems, testapi.IndexItemsByParty).
			HasIndex(testapi.TableFilters, testapi.IndexFiltersInverted)
	})
}

func TestDynamoDB_FixtureLoaded(t *testing.T) {
	harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
		assert.Table(t, h.Clients.DynamoDB, testapi.TableItems).
			HasCount(fixture.Size).
			Items().
			ContainsItem(fixture.Items()[0].ItemID).
			HasIntactHashes()
		assert.Table(t, h.Clients.DynamoDB, testapi.TableParties).IsEmpty()
	})
}

func TestDynamoDB_ScanCount(t *testing.T) {
	harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
		out, err := h.Clients.DynamoDB.Scan(context.Background(), &dynamodb.ScanInput{
			TableName: aws.String(testapi.TableItems),
		})
		require.NoError(t, err)
		require.Equal(t, int32(fixture.Size), out.Count)
	})
}

func TestDynamoDB_ResetRestoresBaseline(t *testing.T) {
	harness.Current(t, harness.KindDynamoDB).Run(t, func(t *testing.T, h *harness.Harness) {
		ctx := context.Background()
		extra := item.New(
			item.WithID("https://example.com#extra"),
			item.WithSource("https://example.com"),
			item.WithCreated(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		)
		require.NoError(t, dynamo.NewWriter(h.Clients.DynamoDB).WriteItems(ctx, []item.Model{extra}))
		assert.Table(t, h.Clients.DynamoDB, testapi.TableItems).HasCount(fixture.Size + 1)

		require.NoError(t, h.Reset(ctx))
		assert.Table(t, h.Clients.DynamoDB, testapi.TableItems).
			HasCount(fixture.Size).
			Items().
			HasIntactHashes()
	})
}

func TestDynamoDB_IsolatedRuns(t *testing.T) {
	h := harness.Current(t, harness.KindDynamoDB)

	t.Run("write", func(t *testing.T) {
		h.Run(t, func(t *testing.T, h *harness.Harness) {
			extra := item.New(
				item.WithID("https://example.com#leak"),
				item.WithSource("https://example.com"),
				item.WithCreated(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
			)
			require.NoError(t, dynamo.NewWriter(h.Clients.DynamoDB).WriteItems(context.Background(), []item.Model{extra}))
		})
	})

	t.Run("read", func(t *testing.T) {
		h.Run(t, func(t *testing.T, h *harness.Harness) {
			assert.Table(t, h.Clients.DynamoDB, testapi.TableItems).HasCount(fixture.Size)
		})
	})
}
