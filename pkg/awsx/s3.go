package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

const bytesPerGB = 1024 * 1024 * 1024

// BucketScanner discovers S3 buckets homed in its region.
type BucketScanner struct {
	client     *s3.Client
	metrics    *MetricsClient
	region     string
	windowDays int
}

// NewBucketScanner creates a BucketScanner for a region.
func NewBucketScanner(region string, windowDays int) (*BucketScanner, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &BucketScanner{
		client:     s3.NewFromConfig(cfg),
		metrics:    NewMetricsClient(cfg),
		region:     region,
		windowDays: windowDays,
	}, nil
}

// Scan returns one record per bucket homed in the scanner's region.
// ListBuckets is global, so buckets belonging to other regions are
// filtered out by their location constraint. Object count and stored
// size come from the S3 storage metrics CloudWatch publishes daily;
// both stay unknown when no datapoint exists yet.
func (s *BucketScanner) Scan(ctx context.Context) ([]models.ResourceRecord, error) {
	result, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("error listing S3 buckets: %w", err)
	}

	var records []models.ResourceRecord

	for _, bucket := range result.Buckets {
		name := aws.ToString(bucket.Name)

		region, err := s.bucketRegion(ctx, name)
		if err != nil || region != s.region {
			continue
		}

		rec := models.ResourceRecord{
			Kind:      models.KindObjectBucket,
			Region:    s.region,
			ID:        name,
			Name:      name,
			State:     "available",
			CreatedAt: bucket.CreationDate,
			Tags:      map[string]string{},
		}

		if count, err := s.objectCount(ctx, name); err == nil && count != nil {
			n := int64(*count)
			rec.ObjectCount = &n
		}
		if size, err := s.storedBytes(ctx, name); err == nil && size != nil {
			gb := *size / bytesPerGB
			rec.SizeUnits = &gb
		}

		// Buckets without a tag set return an error here; treat as untagged.
		if tagsOut, err := s.client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{
			Bucket: aws.String(name),
		}); err == nil {
			for _, tag := range tagsOut.TagSet {
				if tag.Key != nil && tag.Value != nil {
					rec.Tags[*tag.Key] = *tag.Value
				}
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

func (s *BucketScanner) bucketRegion(ctx context.Context, name string) (string, error) {
	loc, err := s.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("error getting location for bucket %s: %w", name, err)
	}

	// An empty location constraint means us-east-1.
	region := string(loc.LocationConstraint)
	if region == "" {
		region = "us-east-1"
	}
	return region, nil
}

func (s *BucketScanner) objectCount(ctx context.Context, name string) (*float64, error) {
	return s.metrics.WindowAverage(ctx, "AWS/S3", "NumberOfObjects",
		bucketDimensions(name, "AllStorageTypes"), s.windowDays)
}

func (s *BucketScanner) storedBytes(ctx context.Context, name string) (*float64, error) {
	return s.metrics.WindowAverage(ctx, "AWS/S3", "BucketSizeBytes",
		bucketDimensions(name, "StandardStorage"), s.windowDays)
}

func bucketDimensions(name, storageType string) []cwtypes.Dimension {
	return []cwtypes.Dimension{
		{Name: aws.String("BucketName"), Value: aws.String(name)},
		{Name: aws.String("StorageType"), Value: aws.String(storageType)},
	}
}
