package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cloudsweep/cloudsweep/internal/models"
	"github.com/cloudsweep/cloudsweep/pkg/utils"
)

// InstanceScanner discovers EC2 instances and their CPU utilization.
type InstanceScanner struct {
	client     *ec2.Client
	metrics    *MetricsClient
	region     string
	windowDays int
}

// NewInstanceScanner creates an InstanceScanner for a region.
func NewInstanceScanner(region string, windowDays int) (*InstanceScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &InstanceScanner{
		client:     ec2.NewFromConfig(cfg),
		metrics:    NewMetricsClient(cfg),
		region:     region,
		windowDays: windowDays,
	}, nil
}

// Scan returns one record per stopped or running instance. For stopped
// instances the record age is the time since the stop transition, when it
// can be parsed from the state transition reason; an unparseable reason
// leaves the age unknown.
func (s *InstanceScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	filter := types.Filter{
		Name:   aws.String("instance-state-name"),
		Values: []string{"stopped", "running"},
	}

	var records []models.ResourceRecord

	paginator := ec2.NewDescribeInstancesPaginator(s.client, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{filter},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EC2 instances: %w", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				state := string(instance.State.Name)

				rec := models.ResourceRecord{
					Kind:           models.KindInstance,
					Region:         s.region,
					ID:             aws.ToString(instance.InstanceId),
					Name:           utils.GetName(instance.Tags),
					State:          state,
					Tags:           utils.GetTagsMap(instance.Tags),
					TypeDescriptor: string(instance.InstanceType),
				}

				switch state {
				case "stopped":
					// Age counts from the stop transition, not launch.
					if instance.StateTransitionReason != nil {
						rec.CreatedAt = utils.ParseStateTransitionTime(*instance.StateTransitionReason)
					}
				default:
					rec.CreatedAt = instance.LaunchTime
					cpu, err := s.metrics.WindowAverage(ctx, "AWS/EC2", "CPUUtilization",
						dimension("InstanceId", rec.ID), s.windowDays)
					if err == nil {
						rec.Utilization = cpu
					}
				}

				records = append(records, rec)
			}
		}
	}

	return records, nil
}
