// Package awsx is the provider edge: per-kind inventory scanners,
// trailing-window CloudWatch metrics, and the backup and destructive
// actions. Provider sentinels and missing datapoints are converted to nil
// optionals here, exactly once, so core logic never sees magic values.
package awsx

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsClient answers trailing-window utilization queries against
// CloudWatch.
type MetricsClient struct {
	client *cloudwatch.Client
}

// NewMetricsClient creates a MetricsClient from a loaded AWS config.
func NewMetricsClient(cfg aws.Config) *MetricsClient {
	return &MetricsClient{client: cloudwatch.NewFromConfig(cfg)}
}

// WindowAverage returns the average of a metric over the trailing window,
// or nil when CloudWatch has no datapoints for it.
func (m *MetricsClient) WindowAverage(ctx context.Context, namespace, metricName string, dims []cwtypes.Dimension, windowDays int) (*float64, error) {
	return m.windowStat(ctx, namespace, metricName, dims, windowDays, cwtypes.StatisticAverage)
}

// WindowSum returns the sum of a metric over the trailing window, or nil
// when CloudWatch has no datapoints for it.
func (m *MetricsClient) WindowSum(ctx context.Context, namespace, metricName string, dims []cwtypes.Dimension, windowDays int) (*float64, error) {
	return m.windowStat(ctx, namespace, metricName, dims, windowDays, cwtypes.StatisticSum)
}

func (m *MetricsClient) windowStat(ctx context.Context, namespace, metricName string, dims []cwtypes.Dimension, windowDays int, statistic cwtypes.Statistic) (*float64, error) {
	now := time.Now()
	startTime := now.AddDate(0, 0, -windowDays)

	// One datapoint covering the whole window.
	periodSeconds := int32(windowDays * 24 * 60 * 60)

	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespace),
		MetricName: aws.String(metricName),
		Dimensions: dims,
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(now),
		Period:     aws.Int32(periodSeconds),
		Statistics: []cwtypes.Statistic{statistic},
	}

	resp, err := m.client.GetMetricStatistics(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error getting CloudWatch metric %s/%s: %w", namespace, metricName, err)
	}

	if len(resp.Datapoints) == 0 {
		return nil, nil
	}

	dp := resp.Datapoints[0]
	switch statistic {
	case cwtypes.StatisticSum:
		return dp.Sum, nil
	case cwtypes.StatisticAverage:
		return dp.Average, nil
	default:
		return dp.Sum, nil
	}
}

// dimension is a shorthand for a single CloudWatch dimension.
func dimension(name, value string) []cwtypes.Dimension {
	return []cwtypes.Dimension{{Name: aws.String(name), Value: aws.String(value)}}
}
