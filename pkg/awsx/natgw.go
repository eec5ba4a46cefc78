package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/cloudsweep/cloudsweep/internal/models"
	"github.com/cloudsweep/cloudsweep/pkg/utils"
)

// NATGatewayScanner discovers NAT gateways and their outbound traffic.
type NATGatewayScanner struct {
	client     *ec2.Client
	metrics    *MetricsClient
	region     string
	windowDays int
}

// NewNATGatewayScanner creates a NATGatewayScanner for a region.
func NewNATGatewayScanner(region string, windowDays int) (*NATGatewayScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &NATGatewayScanner{
		client:     ec2.NewFromConfig(cfg),
		metrics:    NewMetricsClient(cfg),
		region:     region,
		windowDays: windowDays,
	}, nil
}

// Scan returns one record per NAT gateway. Utilization is the total bytes
// sent to destinations over the trailing window.
func (s *NATGatewayScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	var records []models.ResourceRecord

	paginator := ec2.NewDescribeNatGatewaysPaginator(s.client, &ec2.DescribeNatGatewaysInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error describing NAT gateways: %w", err)
		}

		for _, gw := range page.NatGateways {
			id := aws.ToString(gw.NatGatewayId)

			rec := models.ResourceRecord{
				Kind:         models.KindNATGateway,
				Region:       s.region,
				ID:           id,
				Name:         utils.GetName(gw.Tags),
				State:        string(gw.State),
				CreatedAt:    gw.CreateTime,
				Tags:         utils.GetTagsMap(gw.Tags),
				AssociatedID: aws.ToString(gw.VpcId),
			}

			bytesOut, err := s.metrics.WindowSum(ctx, "AWS/NATGateway", "BytesOutToDestination",
				dimension("NatGatewayId", id), s.windowDays)
			if err == nil {
				rec.Utilization = bytesOut
			}

			records = append(records, rec)
		}
	}

	return records, nil
}
