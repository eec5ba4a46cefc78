package formatter

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

// PrintAttemptsTable prints one row per deletion attempt, in execution
// order.
func PrintAttemptsTable(attempts []models.DeletionAttempt) {
	if len(attempts) == 0 {
		fmt.Println("No resources were eligible for deletion.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "KIND\tID\tOUTCOME\tPROTECTION\tBACKUP\tMONTHLY COST\tDETAIL")

	for _, a := range attempts {
		backup := a.BackupRef
		if backup == "" {
			backup = "-"
		}

		detail := a.Reason
		if a.Outcome == models.OutcomeFailed {
			detail = fmt.Sprintf("%s failed: %s", a.FailureStage, a.FailureReason)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Record.Kind,
			a.Record.ID,
			a.Outcome,
			a.Protection,
			backup,
			formatCost(a.EstimatedMonthlyCost),
			detail,
		)
	}

	w.Flush()
}

// PrintRunSummary prints the folded outcome counts for a deletion run.
func PrintRunSummary(summary models.RunSummary, dryRun bool) {
	fmt.Println("\n## Deletion Run Summary")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "Succeeded:\t%d\n", summary.Succeeded)
	fmt.Fprintf(w, "Simulated (dry run):\t%d\n", summary.DryRunSimulated)
	fmt.Fprintf(w, "Skipped:\t%d\n", summary.Skipped)
	fmt.Fprintf(w, "Failed:\t%d\n", summary.Failed)
	fmt.Fprintf(w, "Protected by tag:\t%d\n", summary.ProtectedByTag)
	fmt.Fprintf(w, "Backup failures:\t%d\n", summary.BackupFailures)
	w.Flush()

	label := "Monthly savings"
	if dryRun {
		label = "Monthly savings if executed for real"
	}
	fmt.Printf("\n%s: $%s\n", label, humanize.CommafWithDigits(summary.EstimatedSavings, 2))
}
