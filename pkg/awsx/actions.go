package awsx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// backupWaitTimeout bounds how long a backup artifact may take to become
// usable before the deletion is failed.
const backupWaitTimeout = 30 * time.Minute

// Actions performs state verification, backups, and destructive calls for
// one region. It implements the executor's StateVerifier, BackupCreator,
// and Destroyer.
type Actions struct {
	ec2    *ec2.Client
	elb    *elbv2.Client
	rds    *rds.Client
	lambda *lambda.Client
	s3     *s3.Client
	region string
}

// NewActions creates an Actions for a region.
func NewActions(region string) (*Actions, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &Actions{
		ec2:    ec2.NewFromConfig(cfg),
		elb:    elbv2.NewFromConfig(cfg),
		rds:    rds.NewFromConfig(cfg),
		lambda: lambda.NewFromConfig(cfg),
		s3:     s3.NewFromConfig(cfg),
		region: region,
	}, nil
}

// VerifyDeletable re-checks a resource immediately before deletion. It
// returns (false, state, nil) when the resource exists but is not in a
// deletable state, and (false, "gone", nil) when it no longer exists.
func (a *Actions) VerifyDeletable(ctx context.Context, rec models.ResourceRecord) (bool, string, error) {
	switch rec.Kind {
	case models.KindInstance:
		return a.verifyInstance(ctx, rec.ID)
	case models.KindVolume:
		return a.verifyVolume(ctx, rec.ID)
	case models.KindSnapshot:
		return a.verifySnapshot(ctx, rec.ID)
	case models.KindFloatingIP:
		return a.verifyAddress(ctx, rec.ID)
	case models.KindLoadBalancer:
		return a.verifyLoadBalancer(ctx, rec.ID)
	case models.KindManagedDB:
		return a.verifyDatabase(ctx, rec.ID)
	case models.KindFunction:
		return a.verifyFunction(ctx, rec.ID)
	case models.KindNATGateway:
		return a.verifyNATGateway(ctx, rec.ID)
	case models.KindObjectBucket:
		return a.verifyBucket(ctx, rec.ID)
	default:
		return false, "", fmt.Errorf("unsupported resource kind: %s", rec.Kind)
	}
}

// SupportsBackup reports whether a kind carries data worth snapshotting.
// Instances become AMIs, volumes and databases become snapshots; the rest
// either have no state or are deleted only when already empty.
func (a *Actions) SupportsBackup(kind models.ResourceKind) bool {
	switch kind {
	case models.KindInstance, models.KindVolume, models.KindManagedDB:
		return true
	default:
		return false
	}
}

// CreateBackup creates the recovery artifact for a resource and waits for
// it to become usable. The returned identifier is only non-empty once the
// artifact is confirmed.
func (a *Actions) CreateBackup(ctx context.Context, rec models.ResourceRecord) (string, error) {
	switch rec.Kind {
	case models.KindInstance:
		return a.backupInstance(ctx, rec.ID)
	case models.KindVolume:
		return a.backupVolume(ctx, rec.ID)
	case models.KindManagedDB:
		return a.backupDatabase(ctx, rec.ID)
	default:
		return "", fmt.Errorf("kind %s has no backup procedure", rec.Kind)
	}
}

// Destroy performs the irreversible provider call for a resource and
// returns a provider-side reference for the audit trail.
func (a *Actions) Destroy(ctx context.Context, rec models.ResourceRecord) (string, error) {
	switch rec.Kind {
	case models.KindInstance:
		_, err := a.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
			InstanceIds: []string{rec.ID},
		})
		return actionRef("terminate", rec.ID, err)
	case models.KindVolume:
		_, err := a.ec2.DeleteVolume(ctx, &ec2.DeleteVolumeInput{
			VolumeId: aws.String(rec.ID),
		})
		return actionRef("delete-volume", rec.ID, err)
	case models.KindSnapshot:
		_, err := a.ec2.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
			SnapshotId: aws.String(rec.ID),
		})
		return actionRef("delete-snapshot", rec.ID, err)
	case models.KindFloatingIP:
		_, err := a.ec2.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
			AllocationId: aws.String(rec.ID),
		})
		return actionRef("release-address", rec.ID, err)
	case models.KindLoadBalancer:
		_, err := a.elb.DeleteLoadBalancer(ctx, &elbv2.DeleteLoadBalancerInput{
			LoadBalancerArn: aws.String(rec.ID),
		})
		return actionRef("delete-load-balancer", rec.Name, err)
	case models.KindManagedDB:
		_, err := a.rds.DeleteDBInstance(ctx, &rds.DeleteDBInstanceInput{
			DBInstanceIdentifier: aws.String(rec.ID),
			SkipFinalSnapshot:    aws.Bool(true),
		})
		return actionRef("delete-db-instance", rec.ID, err)
	case models.KindFunction:
		_, err := a.lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
			FunctionName: aws.String(rec.ID),
		})
		return actionRef("delete-function", rec.ID, err)
	case models.KindNATGateway:
		_, err := a.ec2.DeleteNatGateway(ctx, &ec2.DeleteNatGatewayInput{
			NatGatewayId: aws.String(rec.ID),
		})
		return actionRef("delete-nat-gateway", rec.ID, err)
	case models.KindObjectBucket:
		_, err := a.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{
			Bucket: aws.String(rec.ID),
		})
		return actionRef("delete-bucket", rec.ID, err)
	default:
		return "", fmt.Errorf("unsupported resource kind: %s", rec.Kind)
	}
}

func actionRef(action, id string, err error) (string, error) {
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", action, id, err)
	}
	return action + ":" + id, nil
}

func (a *Actions) verifyInstance(ctx context.Context, id string) (bool, string, error) {
	out, err := a.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			state := string(inst.State.Name)
			return state == "stopped", state, nil
		}
	}
	return false, "gone", nil
}

func (a *Actions) verifyVolume(ctx context.Context, id string) (bool, string, error) {
	out, err := a.ec2.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{
		VolumeIds: []string{id},
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	if len(out.Volumes) == 0 {
		return false, "gone", nil
	}
	state := string(out.Volumes[0].State)
	return state == "available", state, nil
}

func (a *Actions) verifySnapshot(ctx context.Context, id string) (bool, string, error) {
	out, err := a.ec2.DescribeSnapshots(ctx, &ec2.DescribeSnapshotsInput{
		SnapshotIds: []string{id},
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	if len(out.Snapshots) == 0 {
		return false, "gone", nil
	}
	state := string(out.Snapshots[0].State)
	return state == "completed", state, nil
}

func (a *Actions) verifyAddress(ctx context.Context, allocationID string) (bool, string, error) {
	out, err := a.ec2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{
		AllocationIds: []string{allocationID},
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	if len(out.Addresses) == 0 {
		return false, "gone", nil
	}
	addr := out.Addresses[0]
	if aws.ToString(addr.InstanceId) != "" || aws.ToString(addr.NetworkInterfaceId) != "" {
		return false, "associated", nil
	}
	return true, "unassociated", nil
}

func (a *Actions) verifyLoadBalancer(ctx context.Context, arn string) (bool, string, error) {
	out, err := a.elb.DescribeLoadBalancers(ctx, &elbv2.DescribeLoadBalancersInput{
		LoadBalancerArns: []string{arn},
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	if len(out.LoadBalancers) == 0 {
		return false, "gone", nil
	}
	state := string(out.LoadBalancers[0].State.Code)
	return state == "active", state, nil
}

func (a *Actions) verifyDatabase(ctx context.Context, id string) (bool, string, error) {
	out, err := a.rds.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	if len(out.DBInstances) == 0 {
		return false, "gone", nil
	}
	db := out.DBInstances[0]
	if db.DeletionProtection != nil && *db.DeletionProtection {
		return false, "deletion-protected", nil
	}
	status := aws.ToString(db.DBInstanceStatus)
	return status == "available" || status == "stopped", status, nil
}

func (a *Actions) verifyFunction(ctx context.Context, name string) (bool, string, error) {
	out, err := a.lambda.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	state := string(out.Configuration.State)
	return state != "Pending", state, nil
}

func (a *Actions) verifyNATGateway(ctx context.Context, id string) (bool, string, error) {
	out, err := a.ec2.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{
		NatGatewayIds: []string{id},
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	if len(out.NatGateways) == 0 {
		return false, "gone", nil
	}
	state := string(out.NatGateways[0].State)
	return state == "available", state, nil
}

// verifyBucket only approves buckets that are still empty; DeleteBucket
// would fail on a non-empty one anyway, this just produces a clearer
// outcome.
func (a *Actions) verifyBucket(ctx context.Context, name string) (bool, string, error) {
	out, err := a.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(name),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		if isNotFound(err) {
			return false, "gone", nil
		}
		return false, "", err
	}
	if out.KeyCount != nil && *out.KeyCount > 0 {
		return false, "not-empty", nil
	}
	return true, "empty", nil
}

func (a *Actions) backupInstance(ctx context.Context, id string) (string, error) {
	name := fmt.Sprintf("cloudsweep-%s-%s", id, uuid.NewString()[:8])
	out, err := a.ec2.CreateImage(ctx, &ec2.CreateImageInput{
		InstanceId: aws.String(id),
		Name:       aws.String(name),
		Description: aws.String(fmt.Sprintf(
			"cloudsweep pre-deletion image of %s taken %s", id, time.Now().UTC().Format(time.RFC3339))),
	})
	if err != nil {
		return "", fmt.Errorf("create image for %s: %w", id, err)
	}

	imageID := aws.ToString(out.ImageId)
	waiter := ec2.NewImageAvailableWaiter(a.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeImagesInput{
		ImageIds: []string{imageID},
	}, backupWaitTimeout); err != nil {
		return "", fmt.Errorf("image %s did not become available: %w", imageID, err)
	}
	return imageID, nil
}

func (a *Actions) backupVolume(ctx context.Context, id string) (string, error) {
	out, err := a.ec2.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId: aws.String(id),
		Description: aws.String(fmt.Sprintf(
			"cloudsweep pre-deletion snapshot of %s taken %s", id, time.Now().UTC().Format(time.RFC3339))),
		TagSpecifications: []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeSnapshot,
			Tags: []ec2types.Tag{
				{Key: aws.String("cloudsweep:source-volume"), Value: aws.String(id)},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("create snapshot for %s: %w", id, err)
	}

	snapshotID := aws.ToString(out.SnapshotId)
	waiter := ec2.NewSnapshotCompletedWaiter(a.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeSnapshotsInput{
		SnapshotIds: []string{snapshotID},
	}, backupWaitTimeout); err != nil {
		return "", fmt.Errorf("snapshot %s did not complete: %w", snapshotID, err)
	}
	return snapshotID, nil
}

func (a *Actions) backupDatabase(ctx context.Context, id string) (string, error) {
	snapshotID := fmt.Sprintf("cloudsweep-%s-%s", id, uuid.NewString()[:8])
	_, err := a.rds.CreateDBSnapshot(ctx, &rds.CreateDBSnapshotInput{
		DBInstanceIdentifier: aws.String(id),
		DBSnapshotIdentifier: aws.String(snapshotID),
	})
	if err != nil {
		return "", fmt.Errorf("create DB snapshot for %s: %w", id, err)
	}

	waiter := rds.NewDBSnapshotAvailableWaiter(a.rds)
	if err := waiter.Wait(ctx, &rds.DescribeDBSnapshotsInput{
		DBSnapshotIdentifier: aws.String(snapshotID),
	}, backupWaitTimeout); err != nil {
		return "", fmt.Errorf("DB snapshot %s did not become available: %w", snapshotID, err)
	}
	return snapshotID, nil
}

// isNotFound matches the NotFound error shapes the various services return
// for resources that no longer exist.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return strings.Contains(code, "NotFound") ||
		code == "NoSuchBucket" ||
		code == "DBInstanceNotFoundFault" ||
		code == "ResourceNotFoundException" ||
		code == "LoadBalancerNotFound" ||
		code == "InvalidAllocationID.NotFound"
}
