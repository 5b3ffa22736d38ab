package dynamo

import (
	"context"

	"go.uber.org/zap"

	testapi "github.com/blitzfilter/test-api"
)

// Setup provisions the tables and writes records into the items table.
func Setup(ctx context.Context, client API, records []testapi.Record, opts ...Option) error {
	if err := Provision(ctx, client, opts...); err != nil {
		return err
	}
	return NewWriter(client, opts...).Write(ctx, testapi.TableItems, records)
}

// Reset erases every table and writes records into the items table again, so
// the items table holds exactly the fixture afterwards.
func Reset(ctx context.Context, client API, records []testapi.Record, opts ...Option) error {
	if _, err := NewEraser(client, opts...).EraseAll(ctx); err != nil {
		return err
	}
	return NewWriter(client, opts...).Write(ctx, testapi.TableItems, records)
}

// Lifecycle establishes and restores the fixture baseline for a sequence of
// tests sharing one backend. Tables are provisioned by the first Setup only;
// later calls rewrite the fixture. A Lifecycle is not safe for concurrent use.
type Lifecycle struct {
	client  API
	records []testapi.Record
	opts    []Option
	logger  *zap.Logger

	provisioned bool
}

// NewLifecycle creates a Lifecycle that seeds records.
func NewLifecycle(client API, records []testapi.Record, opts ...Option) *Lifecycle {
	return &Lifecycle{
		client:  client,
		records: records,
		opts:    opts,
		logger:  newOptions(opts).Logger,
	}
}

// Setup provisions the tables if not done yet and writes the fixture.
func (l *Lifecycle) Setup(ctx context.Context) error {
	if !l.provisioned {
		if err := Provision(ctx, l.client, l.opts...); err != nil {
			return err
		}
		l.provisioned = true
	}
	if err := NewWriter(l.client, l.opts...).Write(ctx, testapi.TableItems, l.records); err != nil {
		return err
	}
	l.logger.Debug("fixture written", zap.Int("records", len(l.records)))
	return nil
}

// Reset restores the fixture baseline without re-provisioning.
func (l *Lifecycle) Reset(ctx context.Context) error {
	return Reset(ctx, l.client, l.records, l.opts...)
}

// Client returns the client the lifecycle drives.
func (l *Lifecycle) Client() API {
	return l.client
}
