package ingestion

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	testapi "github.com/blitzfilter/test-api"
)

func (p *Pipeline) teardownQueues(ctx context.Context) error {
	pages := sqs.NewListQueuesPaginator(p.queues, &sqs.ListQueuesInput{})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return testapi.Fail("list-queues", "", err)
		}
		for _, url := range page.QueueUrls {
			if _, err := p.queues.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: aws.String(url)}); err != nil {
				return testapi.Fail("delete-queue", url, err)
			}
			p.opts.Logger.Debug("deleted queue", zap.String("queue", url))
		}
	}
	return nil
}

// teardownFunctions deletes every event source mapping and then every
// function. Deletes within each step run concurrently.
func (p *Pipeline) teardownFunctions(ctx context.Context) error {
	var mappings []string
	mappingPages := lambda.NewListEventSourceMappingsPaginator(p.functions, &lambda.ListEventSourceMappingsInput{})
	for mappingPages.HasMorePages() {
		page, err := mappingPages.NextPage(ctx)
		if err != nil {
			return testapi.Fail("list-mappings", "", err)
		}
		for _, m := range page.EventSourceMappings {
			mappings = append(mappings, aws.ToString(m.UUID))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range mappings {
		g.Go(func() error {
			_, err := p.functions.DeleteEventSourceMapping(gctx, &lambda.DeleteEventSourceMappingInput{UUID: aws.String(id)})
			return testapi.Fail("delete-mapping", id, err)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var functions []string
	functionPages := lambda.NewListFunctionsPaginator(p.functions, &lambda.ListFunctionsInput{})
	for functionPages.HasMorePages() {
		page, err := functionPages.NextPage(ctx)
		if err != nil {
			return testapi.Fail("list-functions", "", err)
		}
		for _, fn := range page.Functions {
			functions = append(functions, shortName(aws.ToString(fn.FunctionName)))
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	for _, name := range functions {
		g.Go(func() error {
			_, err := p.functions.DeleteFunction(gctx, &lambda.DeleteFunctionInput{FunctionName: aws.String(name)})
			return testapi.Fail("delete-function", name, err)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.opts.Logger.Debug("removed functions",
		zap.Int("functions", len(functions)),
		zap.Int("mappings", len(mappings)))
	return nil
}

// shortName strips the ARN prefix some backends report in FunctionName.
func shortName(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}
