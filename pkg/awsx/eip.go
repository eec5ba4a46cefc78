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

// AddressScanner discovers Elastic IP addresses.
type AddressScanner struct {
	client *ec2.Client
	region string
}

// NewAddressScanner creates an AddressScanner for a region.
func NewAddressScanner(region string) (*AddressScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &AddressScanner{
		client: ec2.NewFromConfig(cfg),
		region: region,
	}, nil
}

// Scan returns one record per allocated address. An address attached to an
// instance or a network interface carries that attachment as the
// associated resource; addresses with neither are unassociated.
func (s *AddressScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	result, err := s.client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("error querying Elastic IPs: %w", err)
	}

	var records []models.ResourceRecord

	for _, eip := range result.Addresses {
		associated := aws.ToString(eip.InstanceId)
		if associated == "" {
			associated = aws.ToString(eip.NetworkInterfaceId)
		}

		state := "associated"
		if associated == "" {
			state = "unassociated"
		}

		records = append(records, models.ResourceRecord{
			Kind:         models.KindFloatingIP,
			Region:       s.region,
			ID:           aws.ToString(eip.AllocationId),
			Name:         aws.ToString(eip.PublicIp),
			State:        state,
			Tags:         utils.GetTagsMap(eip.Tags),
			AssociatedID: associated,
		})
	}

	return records, nil
}
