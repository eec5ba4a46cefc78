package formatter

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// MAX_NAME_WIDTH defines the maximum width for the Name column
const MAX_NAME_WIDTH = 20

// kindTitles maps each resource kind to its table heading.
var kindTitles = map[models.ResourceKind]string{
	models.KindInstance:     "EC2 Instances",
	models.KindVolume:       "EBS Volumes",
	models.KindSnapshot:     "EBS Snapshots",
	models.KindFloatingIP:   "Elastic IPs",
	models.KindLoadBalancer: "Load Balancers",
	models.KindManagedDB:    "RDS Instances",
	models.KindFunction:     "Lambda Functions",
	models.KindNATGateway:   "NAT Gateways",
	models.KindObjectBucket: "S3 Buckets",
}

// KindTitle returns the human heading for a kind.
func KindTitle(kind models.ResourceKind) string {
	if t, ok := kindTitles[kind]; ok {
		return t
	}
	return string(kind)
}

// PrintClassifiedTable prints a formatted table of classification results
// for one resource kind, sorted by estimated monthly cost (highest first).
func PrintClassifiedTable(kind models.ResourceKind, rows []models.Classified, scanTime time.Time, scanDuration time.Duration) {
	fmt.Printf("\n## %s\n", KindTitle(kind))

	if len(rows) == 0 {
		fmt.Printf("No %s found.\n", strings.ToLower(KindTitle(kind)))
		return
	}

	sort.Slice(rows, func(i, j int) bool {
		return costOrZero(rows[i].Verdict.EstimatedMonthlyCost) > costOrZero(rows[j].Verdict.EstimatedMonthlyCost)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tID\tSTATE\tAGE\tACTIVITY\tVERDICT\tMONTHLY COST\tREGION\tREASON")

	now := time.Now()
	var total float64
	for _, row := range rows {
		rec := row.Record
		total += costOrZero(row.Verdict.EstimatedMonthlyCost)

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateName(rec.Name),
			rec.ID,
			rec.State,
			formatAge(rec.AgeDays(now)),
			formatActivity(rec.Utilization),
			row.Verdict.Disposition,
			formatCost(row.Verdict.EstimatedMonthlyCost),
			rec.Region,
			row.Verdict.Reason,
		)
	}

	fmt.Fprintf(w, "Total:\t\t\t\t\t\t$%s\t\t\n", humanize.CommafWithDigits(total, 2))

	w.Flush()
	printTimestamp(scanTime, scanDuration)
}

// truncateName limits a name to the display width of the Name column,
// counting CJK characters as double width.
func truncateName(name string) string {
	if name == "" {
		return "N/A"
	}
	if StringWidth(name) <= MAX_NAME_WIDTH {
		return name
	}

	truncated := ""
	currentWidth := 0
	for _, r := range name {
		charWidth := RuneWidth(r)
		if currentWidth+charWidth > MAX_NAME_WIDTH-2 {
			break
		}
		truncated += string(r)
		currentWidth += charWidth
	}
	return truncated + ".."
}

func formatAge(days *int) string {
	if days == nil {
		return "N/A"
	}
	return fmt.Sprintf("%dd", *days)
}

func formatActivity(util *float64) string {
	if util == nil {
		return "N/A"
	}
	return humanize.CommafWithDigits(*util, 1)
}

func formatCost(cost *float64) string {
	if cost == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *cost)
}

func costOrZero(cost *float64) float64 {
	if cost == nil {
		return 0
	}
	return *cost
}

// printTimestamp prints the scan timestamp and duration
func printTimestamp(scanStartTime time.Time, scanDuration time.Duration) {
	timeStr := scanStartTime.Format("2006-01-02 15:04:05")
	durationStr := fmt.Sprintf("%.2fs", scanDuration.Seconds())

	fmt.Printf("Scan completed at %s (took %s)\n", timeStr, durationStr)
}
