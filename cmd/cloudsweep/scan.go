package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/cloudsweep/cloudsweep/internal/config"
	"github.com/cloudsweep/cloudsweep/internal/models"
	"github.com/cloudsweep/cloudsweep/pkg/awsx"
	"github.com/cloudsweep/cloudsweep/pkg/classify"
	"github.com/cloudsweep/cloudsweep/pkg/formatter"
	"github.com/cloudsweep/cloudsweep/pkg/pricing"
	"github.com/cloudsweep/cloudsweep/pkg/report"
	"github.com/cloudsweep/cloudsweep/pkg/utils"
)

// kindDescriptions provides help text for the --kinds flag.
var kindDescriptions = map[models.ResourceKind]string{
	models.KindInstance:     "Stopped and underutilized EC2 instances",
	models.KindVolume:       "Unattached EBS volumes",
	models.KindSnapshot:     "Aged EBS snapshots",
	models.KindFloatingIP:   "Unassociated Elastic IPs",
	models.KindLoadBalancer: "Load balancers with no traffic",
	models.KindManagedDB:    "RDS instances with no connections",
	models.KindFunction:     "Lambda functions with no invocations",
	models.KindNATGateway:   "NAT gateways with no outbound traffic",
	models.KindObjectBucket: "Empty and stale S3 buckets",
}

func newScanCmd() *cobra.Command {
	var (
		regions     []string
		kinds       []string
		configPath  string
		outputPath  string
		livePricing bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for unused resources and write a report",
		Long: `scan inventories the selected resource kinds across the selected
regions, classifies every resource, prints the results, and writes a
report for the delete command to consume.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(regions) == 0 {
				regions = []string{utils.GetDefaultRegion()}
			}

			var validRegions []string
			for _, region := range regions {
				if utils.IsValidRegion(region) {
					validRegions = append(validRegions, region)
				} else {
					fmt.Printf("Warning: Skipping invalid region '%s'\n", region)
				}
			}
			if len(validRegions) == 0 {
				return fmt.Errorf("no valid regions specified")
			}

			var activeKinds []models.ResourceKind
			if len(kinds) == 0 {
				activeKinds = models.AllKinds
			} else {
				for _, k := range kinds {
					if !models.IsValidKind(k) {
						fmt.Printf("Warning: Skipping unknown resource kind '%s'\n", k)
						continue
					}
					activeKinds = append(activeKinds, models.ResourceKind(k))
				}
			}
			if len(activeKinds) == 0 {
				return fmt.Errorf("no valid resource kinds specified")
			}

			thresholds, err := config.Load(configPath)
			if err != nil {
				return err
			}

			estimator := pricing.NewEstimator()
			if livePricing {
				estimator = pricing.NewLiveEstimator()
			}
			classifier := classify.New(thresholds, estimator)

			var allRows []models.Classified
			for _, kind := range activeKinds {
				rows := processKind(cmd.Context(), kind, validRegions, thresholds, classifier)
				allRows = append(allRows, rows...)
			}

			if msg := pricing.GetInitMessage(); msg != "" {
				fmt.Println(msg)
			}

			formatter.PrintAgeSummary(allRows)
			formatter.PrintScanSummary(allRows)
			formatter.PrintPricingAPIStats()

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("error creating report file: %w", err)
			}
			defer out.Close()

			if err := report.Write(out, allRows, time.Now()); err != nil {
				return fmt.Errorf("error writing report: %w", err)
			}
			fmt.Printf("\nReport written to %s (%d resources)\n", outputPath, len(allRows))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&regions, "regions", "r", nil,
		fmt.Sprintf("AWS regions to scan (comma separated, default: %s)", utils.GetDefaultRegion()))
	cmd.Flags().StringSliceVarP(&kinds, "kinds", "k", nil,
		fmt.Sprintf("Resource kinds to scan (comma separated, default: all of %s)", strings.Join(kindNames(), ",")))
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to a thresholds config file (default: $HOME/.cloudsweep.yaml)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "cloudsweep-report.csv",
		"Path the scan report is written to")
	cmd.Flags().BoolVar(&livePricing, "live-pricing", false,
		"Query the AWS Pricing API for instance prices instead of static tables")

	return cmd
}

func kindNames() []string {
	names := make([]string, len(models.AllKinds))
	for i, k := range models.AllKinds {
		names[i] = string(k)
	}
	return names
}

// startKindSpinner creates and starts a spinner for one resource kind.
func startKindSpinner(kind models.ResourceKind) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Analyzing %s ...", formatter.KindTitle(kind))
	s.Start()
	return s
}

// processKind scans one resource kind across all regions in parallel and
// prints its table.
func processKind(ctx context.Context, kind models.ResourceKind, regions []string, thresholds models.ThresholdConfig, classifier *classify.Classifier) []models.Classified {
	fmt.Printf("Starting %s scan ...\n", formatter.KindTitle(kind))
	scanStartTime := time.Now()

	s := startKindSpinner(kind)

	results := make([]struct {
		records []models.ResourceRecord
		err     error
		region  string
	}, len(regions))

	var wg sync.WaitGroup
	for i, region := range regions {
		wg.Add(1)
		go func(idx int, r string) {
			defer wg.Done()

			records, err := scanKind(ctx, kind, r, thresholds)
			results[idx].records = records
			results[idx].err = err
			results[idx].region = r
		}(i, region)
	}

	wg.Wait()

	scanDuration := time.Since(scanStartTime)

	var rows []models.Classified
	for _, result := range results {
		if result.err != nil {
			continue
		}
		for _, rec := range result.records {
			rows = append(rows, models.Classified{
				Record:  rec,
				Verdict: classifier.Classify(rec),
			})
		}
	}

	s.FinalMSG = fmt.Sprintf("✓ [%d found] %s analyzed - Completed in %.2f seconds\n",
		len(rows), formatter.KindTitle(kind), scanDuration.Seconds())
	s.Stop()

	for _, result := range results {
		if result.err != nil {
			fmt.Printf("Error in region %s: %v\n", result.region, result.err)
		}
	}

	formatter.PrintClassifiedTable(kind, rows, scanStartTime, scanDuration)
	return rows
}

// scanKind builds the scanner for a kind and runs it against one region.
func scanKind(ctx context.Context, kind models.ResourceKind, region string, thresholds models.ThresholdConfig) ([]models.ResourceRecord, error) {
	windowDays := thresholds.WindowDays(kind)

	switch kind {
	case models.KindInstance:
		s, err := awsx.NewInstanceScanner(region, windowDays)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindVolume:
		s, err := awsx.NewVolumeScanner(region)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindSnapshot:
		s, err := awsx.NewSnapshotScanner(region)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindFloatingIP:
		s, err := awsx.NewAddressScanner(region)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindLoadBalancer:
		s, err := awsx.NewLoadBalancerScanner(region, windowDays)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindManagedDB:
		s, err := awsx.NewDatabaseScanner(region, windowDays)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindFunction:
		s, err := awsx.NewFunctionScanner(region, windowDays)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindNATGateway:
		s, err := awsx.NewNATGatewayScanner(region, windowDays)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	case models.KindObjectBucket:
		s, err := awsx.NewBucketScanner(region, windowDays)
		if err != nil {
			return nil, err
		}
		return s.Scan(ctx)
	default:
		return nil, fmt.Errorf("unsupported resource kind: %s", kind)
	}
}
