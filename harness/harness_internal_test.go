package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	testapi "github.com/blitzfilter/test-api"
	"github.com/blitzfilter/test-api/awsmock"
	"github.com/blitzfilter/test-api/fixture"
	"github.com/blitzfilter/test-api/ingestion"
	"github.com/blitzfilter/test-api/localstack"
)

type fakeLifecycle struct {
	events   *[]string
	setupErr error
}

func (f fakeLifecycle) Setup(ctx context.Context) error {
	*f.events = append(*f.events, "setup")
	return f.setupErr
}

func (f fakeLifecycle) Reset(ctx context.Context) error {
	*f.events = append(*f.events, "reset")
	return nil
}

func TestKind(t *testing.T) {
	assert.Equal(t, "dynamodb", KindDynamoDB.String())
	assert.Equal(t, "ingestion", KindIngestion.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())

	assert.Equal(t, []string{localstack.ServiceDynamoDB}, KindDynamoDB.Services())
	assert.ElementsMatch(t,
		[]string{localstack.ServiceSQS, localstack.ServiceLambda, localstack.ServiceDynamoDB},
		KindIngestion.Services())
}

func TestParseEnv_Defaults(t *testing.T) {
	cfg, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.ProvisionTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, ingestion.FunctionBundleURL, cfg.FunctionBundleURL)
	assert.Equal(t, ingestion.BundleCachePath, cfg.BundleCachePath)
	assert.Equal(t, time.Hour, cfg.BundleMaxAge)
	assert.Empty(t, cfg.FixturePath)
	assert.Equal(t, 4566, cfg.LocalStack.HostPort)
	assert.Equal(t, "eu-central-1", cfg.LocalStack.Region)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("TEST_API_MAX_RETRIES", "2")
	t.Setenv("TEST_API_SCAN_PAGE_SIZE", "10")
	t.Setenv("TEST_API_FIXTURE_PATH", "testdata/items.json")
	t.Setenv("TEST_API_REGION", "us-east-1")
	t.Setenv("TEST_API_BUNDLE_MAX_AGE", "0s")

	cfg, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 10, cfg.ScanPageSize)
	assert.Equal(t, "testdata/items.json", cfg.FixturePath)
	assert.Equal(t, "us-east-1", cfg.LocalStack.Region)
	assert.Zero(t, cfg.BundleMaxAge)
}

func TestParseEnv_Invalid(t *testing.T) {
	t.Setenv("TEST_API_PROVISION_TIMEOUT", "soon")

	_, err := ParseEnv()
	assert.Error(t, err)
}

func TestLoadRecords(t *testing.T) {
	records, err := loadRecords("")
	require.NoError(t, err)
	assert.Len(t, records, fixture.Size)

	_, err = loadRecords("testdata/does-not-exist.json")
	assert.Error(t, err)
}

func TestNewLifecycle_DynamoDB(t *testing.T) {
	store := awsmock.NewStore()
	cfg := Config{ProvisionTimeout: time.Second, MaxRetries: 1, ScanPageSize: 10}

	lc, pipeline := newLifecycle(KindDynamoDB, cfg, zaptest.NewLogger(t), store, nil, nil, fixture.Records())
	assert.Nil(t, pipeline)

	ctx := context.Background()
	require.NoError(t, lc.Setup(ctx))
	assert.ElementsMatch(t, testapi.TableNames(), store.TableNames())
	assert.Equal(t, fixture.Size, store.Count(testapi.TableItems))

	require.NoError(t, lc.Reset(ctx))
	assert.Equal(t, fixture.Size, store.Count(testapi.TableItems))
	assert.Equal(t, 3, store.Calls("CreateTable"))
}

func TestNewLifecycle_Ingestion(t *testing.T) {
	cfg := Config{ProvisionTimeout: time.Second, FunctionBundleURL: "http://127.0.0.1:1/bundle.zip"}

	lc, pipeline := newLifecycle(KindIngestion, cfg, zaptest.NewLogger(t), awsmock.NewStore(),
		awsmock.NewSQSClient(t), awsmock.NewLambdaClient(t), fixture.Records())

	require.NotNil(t, pipeline)
	assert.Equal(t, Lifecycle(pipeline), lc)
}

func TestHarness_Run(t *testing.T) {
	var events []string
	h := &Harness{lifecycle: fakeLifecycle{events: &events}, runTimeout: time.Second}

	t.Run("passes", func(t *testing.T) {
		h.Run(t, func(t *testing.T, got *Harness) {
			assert.Same(t, h, got)
			events = append(events, "body")
		})
	})
	assert.Equal(t, []string{"setup", "body", "reset"}, events)

	events = nil
	t.Run("skips", func(t *testing.T) {
		h.Run(t, func(t *testing.T, _ *Harness) {
			events = append(events, "body")
			t.Skip("not today")
			events = append(events, "unreachable")
		})
	})
	assert.Equal(t, []string{"setup", "body", "reset"}, events)
}

func TestHarness_QueueURL(t *testing.T) {
	h := &Harness{}
	assert.Equal(t, ingestion.QueueURL, h.QueueURL())
	assert.NoError(t, h.Close(context.Background()))
}

func TestShared_RejectsSecondKind(t *testing.T) {
	shared.mu.Lock()
	savedKind, savedLazy := shared.kind, shared.lazy
	shared.kind, shared.lazy = KindDynamoDB, &Lazy[*Harness]{}
	shared.mu.Unlock()
	t.Cleanup(func() {
		shared.mu.Lock()
		shared.kind, shared.lazy = savedKind, savedLazy
		shared.mu.Unlock()
	})

	_, err := Shared(KindIngestion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion requested")
}
