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

// VolumeScanner discovers EBS volumes.
type VolumeScanner struct {
	client *ec2.Client
	region string
}

// NewVolumeScanner creates a VolumeScanner for a region.
func NewVolumeScanner(region string) (*VolumeScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &VolumeScanner{
		client: ec2.NewFromConfig(cfg),
		region: region,
	}, nil
}

// Scan returns one record per volume. Attached volumes carry the first
// attachment's instance id as the associated resource.
func (s *VolumeScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	var records []models.ResourceRecord

	paginator := ec2.NewDescribeVolumesPaginator(s.client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EBS volumes: %w", err)
		}

		for _, volume := range page.Volumes {
			rec := models.ResourceRecord{
				Kind:           models.KindVolume,
				Region:         s.region,
				ID:             aws.ToString(volume.VolumeId),
				Name:           utils.GetName(volume.Tags),
				State:          string(volume.State),
				CreatedAt:      volume.CreateTime,
				Tags:           utils.GetTagsMap(volume.Tags),
				TypeDescriptor: string(volume.VolumeType),
			}

			if volume.Size != nil {
				size := float64(*volume.Size)
				rec.SizeUnits = &size
			}
			if len(volume.Attachments) > 0 {
				rec.AssociatedID = aws.ToString(volume.Attachments[0].InstanceId)
			}

			records = append(records, rec)
		}
	}

	return records, nil
}
