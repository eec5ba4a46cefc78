package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// DatabaseScanner discovers RDS database instances and their connection
// activity.
type DatabaseScanner struct {
	client     *rds.Client
	metrics    *MetricsClient
	region     string
	windowDays int
}

// NewDatabaseScanner creates a DatabaseScanner for a region.
func NewDatabaseScanner(region string, windowDays int) (*DatabaseScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &DatabaseScanner{
		client:     rds.NewFromConfig(cfg),
		metrics:    NewMetricsClient(cfg),
		region:     region,
		windowDays: windowDays,
	}, nil
}

// Scan returns one record per DB instance. Utilization is the average
// connection count over the trailing window.
func (s *DatabaseScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	var records []models.ResourceRecord

	paginator := rds.NewDescribeDBInstancesPaginator(s.client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error describing RDS instances: %w", err)
		}

		for _, db := range page.DBInstances {
			id := aws.ToString(db.DBInstanceIdentifier)

			tags := make(map[string]string, len(db.TagList))
			for _, tag := range db.TagList {
				if tag.Key != nil && tag.Value != nil {
					tags[*tag.Key] = *tag.Value
				}
			}

			rec := models.ResourceRecord{
				Kind:           models.KindManagedDB,
				Region:         s.region,
				ID:             id,
				Name:           id,
				State:          aws.ToString(db.DBInstanceStatus),
				CreatedAt:      db.InstanceCreateTime,
				Tags:           tags,
				TypeDescriptor: aws.ToString(db.DBInstanceClass),
			}

			if db.AllocatedStorage != nil {
				size := float64(*db.AllocatedStorage)
				rec.SizeUnits = &size
			}

			conns, err := s.metrics.WindowAverage(ctx, "AWS/RDS", "DatabaseConnections",
				dimension("DBInstanceIdentifier", id), s.windowDays)
			if err == nil {
				rec.Utilization = conns
			}

			records = append(records, rec)
		}
	}

	return records, nil
}
