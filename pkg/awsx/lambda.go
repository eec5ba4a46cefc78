package awsx

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// Lambda reports LastModified in this layout rather than RFC3339.
const lambdaTimeLayout = "2006-01-02T15:04:05.000-0700"

// FunctionScanner discovers Lambda functions and their invocation counts.
type FunctionScanner struct {
	client     *lambda.Client
	metrics    *MetricsClient
	region     string
	windowDays int
}

// NewFunctionScanner creates a FunctionScanner for a region.
func NewFunctionScanner(region string, windowDays int) (*FunctionScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &FunctionScanner{
		client:     lambda.NewFromConfig(cfg),
		metrics:    NewMetricsClient(cfg),
		region:     region,
		windowDays: windowDays,
	}, nil
}

// Scan returns one record per function. Utilization is the invocation count
// over the trailing window. CreatedAt is the last modification time, the
// closest thing Lambda exposes to an age.
func (s *FunctionScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	var records []models.ResourceRecord

	paginator := lambda.NewListFunctionsPaginator(s.client, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing Lambda functions: %w", err)
		}

		for _, fn := range page.Functions {
			name := aws.ToString(fn.FunctionName)

			rec := models.ResourceRecord{
				Kind:           models.KindFunction,
				Region:         s.region,
				ID:             name,
				Name:           name,
				State:          string(fn.State),
				Tags:           map[string]string{},
				TypeDescriptor: string(fn.Runtime),
			}

			if ts, err := time.Parse(lambdaTimeLayout, aws.ToString(fn.LastModified)); err == nil {
				rec.CreatedAt = &ts
			}
			if fn.MemorySize != nil {
				mem := float64(*fn.MemorySize)
				rec.SizeUnits = &mem
			}

			// Tag lookup failures are tolerated; tags stay empty.
			if tagsOut, err := s.client.ListTags(ctx, &lambda.ListTagsInput{
				Resource: fn.FunctionArn,
			}); err == nil {
				rec.Tags = tagsOut.Tags
			}

			invocations, err := s.metrics.WindowSum(ctx, "AWS/Lambda", "Invocations",
				dimension("FunctionName", name), s.windowDays)
			if err == nil {
				rec.Utilization = invocations
			}

			records = append(records, rec)
		}
	}

	return records, nil
}
