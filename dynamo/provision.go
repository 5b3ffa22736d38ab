package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	testapi "github.com/blitzfilter/test-api"
)

// ListTables returns the names of every table, following pagination.
func ListTables(ctx context.Context, client dynamodb.ListTablesAPIClient) ([]string, error) {
	var names []string
	p := dynamodb.NewListTablesPaginator(client, &dynamodb.ListTablesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, testapi.Fail("list-tables", "", err)
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}

// Provision drops every existing table and creates the harness tables, waiting
// until each is active. Calling it again starts over from empty tables.
func Provision(ctx context.Context, client API, opts ...Option) error {
	o := newOptions(opts)

	existing, err := ListTables(ctx, client)
	if err != nil {
		return err
	}
	for _, name := range existing {
		if err := dropTable(ctx, client, name, o); err != nil {
			return err
		}
	}

	defs := testapi.TableDefinitions()
	for _, def := range defs {
		name := aws.ToString(def.TableName)
		if _, err := client.CreateTable(ctx, def); err != nil {
			return testapi.Fail("create-table", name, err)
		}
		o.Logger.Debug("created table", zap.String("table", name))
	}

	exists := dynamodb.NewTableExistsWaiter(client)
	for _, def := range defs {
		name := aws.ToString(def.TableName)
		err := exists.Wait(ctx, &dynamodb.DescribeTableInput{TableName: def.TableName}, o.ProvisionTimeout)
		if err != nil {
			return testapi.Fail("wait-table", name, err)
		}
	}

	o.Logger.Info("provisioned tables", zap.Strings("tables", testapi.TableNames()))
	return nil
}

func dropTable(ctx context.Context, client API, name string, o Options) error {
	_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(name)})
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return testapi.Fail("delete-table", name, err)
	}

	gone := dynamodb.NewTableNotExistsWaiter(client)
	if err := gone.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, o.ProvisionTimeout); err != nil {
		return testapi.Fail("wait-table", name, err)
	}
	o.Logger.Debug("dropped table", zap.String("table", name))
	return nil
}
