package awsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

const (
	namespaceALB = "AWS/ApplicationELB"
	namespaceNLB = "AWS/NetworkELB"

	metricRequestCount    = "RequestCount"
	metricActiveFlowCount = "ActiveFlowCount"
)

// LoadBalancerScanner discovers ALB and NLB resources and their traffic.
type LoadBalancerScanner struct {
	client     *elbv2.Client
	metrics    *MetricsClient
	region     string
	windowDays int
}

// NewLoadBalancerScanner creates a LoadBalancerScanner for a region.
func NewLoadBalancerScanner(region string, windowDays int) (*LoadBalancerScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &LoadBalancerScanner{
		client:     elbv2.NewFromConfig(cfg),
		metrics:    NewMetricsClient(cfg),
		region:     region,
		windowDays: windowDays,
	}, nil
}

// Scan returns one record per ALB/NLB. Utilization is the request count
// for ALBs and the average active flow count for NLBs over the trailing
// window; a failed metric query leaves it unknown rather than zero.
func (s *LoadBalancerScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	var records []models.ResourceRecord

	paginator := elbv2.NewDescribeLoadBalancersPaginator(s.client, &elbv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error describing load balancers: %w", err)
		}

		for _, lb := range page.LoadBalancers {
			if lb.Type != elbv2types.LoadBalancerTypeEnumApplication && lb.Type != elbv2types.LoadBalancerTypeEnumNetwork {
				continue
			}

			arn := aws.ToString(lb.LoadBalancerArn)

			rec := models.ResourceRecord{
				Kind:           models.KindLoadBalancer,
				Region:         s.region,
				ID:             arn,
				Name:           aws.ToString(lb.LoadBalancerName),
				State:          string(lb.State.Code),
				CreatedAt:      lb.CreatedTime,
				Tags:           map[string]string{},
				TypeDescriptor: string(lb.Type),
			}

			if activity, err := s.trafficOverWindow(ctx, arn, lb.Type); err == nil {
				rec.Utilization = activity
			}

			records = append(records, rec)
		}
	}

	return records, nil
}

func (s *LoadBalancerScanner) trafficOverWindow(ctx context.Context, arn string, lbType elbv2types.LoadBalancerTypeEnum) (*float64, error) {
	dimValue, err := metricDimensionFromARN(arn)
	if err != nil {
		return nil, err
	}
	dims := dimension("LoadBalancer", dimValue)

	switch lbType {
	case elbv2types.LoadBalancerTypeEnumApplication:
		return s.metrics.WindowSum(ctx, namespaceALB, metricRequestCount, dims, s.windowDays)
	case elbv2types.LoadBalancerTypeEnumNetwork:
		return s.metrics.WindowAverage(ctx, namespaceNLB, metricActiveFlowCount, dims, s.windowDays)
	default:
		return nil, fmt.Errorf("unsupported load balancer type: %s", lbType)
	}
}

// metricDimensionFromARN extracts the LoadBalancer dimension value, e.g.
// "app/my-alb/1234", from a load balancer ARN.
func metricDimensionFromARN(arn string) (string, error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 6 {
		return "", fmt.Errorf("invalid load balancer ARN: %s", arn)
	}
	resource := parts[5]
	if !strings.HasPrefix(resource, "loadbalancer/") {
		return "", fmt.Errorf("unexpected load balancer ARN resource: %s", resource)
	}
	return strings.TrimPrefix(resource, "loadbalancer/"), nil
}
