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

// SnapshotScanner discovers EBS snapshots owned by the account.
type SnapshotScanner struct {
	client *ec2.Client
	region string
}

// NewSnapshotScanner creates a SnapshotScanner for a region.
func NewSnapshotScanner(region string) (*SnapshotScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &SnapshotScanner{
		client: ec2.NewFromConfig(cfg),
		region: region,
	}, nil
}

// Scan returns one record per owned snapshot.
func (s *SnapshotScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	var records []models.ResourceRecord

	paginator := ec2.NewDescribeSnapshotsPaginator(s.client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EBS snapshots: %w", err)
		}

		for _, snapshot := range page.Snapshots {
			rec := models.ResourceRecord{
				Kind:         models.KindSnapshot,
				Region:       s.region,
				ID:           aws.ToString(snapshot.SnapshotId),
				Name:         utils.GetName(snapshot.Tags),
				State:        string(snapshot.State),
				CreatedAt:    snapshot.StartTime,
				Tags:         utils.GetTagsMap(snapshot.Tags),
				AssociatedID: aws.ToString(snapshot.VolumeId),
			}

			if snapshot.VolumeSize != nil {
				size := float64(*snapshot.VolumeSize)
				rec.SizeUnits = &size
			}

			records = append(records, rec)
		}
	}

	return records, nil
}
