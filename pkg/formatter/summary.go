package formatter

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// PrintScanSummary prints disposition counts and the total estimated
// monthly cost of everything classified DELETE.
func PrintScanSummary(rows []models.Classified) {
	if len(rows) == 0 {
		return
	}

	counts := map[models.Disposition]int{}
	var deletableCost float64
	for _, row := range rows {
		counts[row.Verdict.Disposition]++
		if row.Verdict.Disposition == models.DispositionDelete {
			deletableCost += costOrZero(row.Verdict.EstimatedMonthlyCost)
		}
	}

	fmt.Println("\n## Scan Summary")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "VERDICT\tRESOURCE COUNT")
	for _, d := range []models.Disposition{
		models.DispositionDelete, models.DispositionReview,
		models.DispositionKeep, models.DispositionIgnore,
	} {
		fmt.Fprintf(w, "%s\t%d\n", d, counts[d])
	}
	w.Flush()

	fmt.Printf("\nEstimated monthly savings if all DELETE verdicts are executed: $%s\n",
		humanize.CommafWithDigits(deletableCost, 2))
}

// PrintAgeSummary displays a breakdown of classified resources by age.
func PrintAgeSummary(rows []models.Classified) {
	if len(rows) == 0 {
		return
	}

	dayRanges := map[string]int{
		"1 day or less": 0,
		"2-7 days":      0,
		"8-30 days":     0,
		"31-90 days":    0,
		"Over 90 days":  0,
		"Unknown":       0,
	}

	now := time.Now()
	for _, row := range rows {
		age := row.Record.AgeDays(now)
		if age == nil {
			dayRanges["Unknown"]++
			continue
		}

		switch days := *age; {
		case days <= 1:
			dayRanges["1 day or less"]++
		case days <= 7:
			dayRanges["2-7 days"]++
		case days <= 30:
			dayRanges["8-30 days"]++
		case days <= 90:
			dayRanges["31-90 days"]++
		default:
			dayRanges["Over 90 days"]++
		}
	}

	fmt.Println("\n## Resource Age Summary")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "AGE\tRESOURCE COUNT")

	keys := []string{"1 day or less", "2-7 days", "8-30 days", "31-90 days", "Over 90 days", "Unknown"}
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%d\n", key, dayRanges[key])
	}

	w.Flush()
}
