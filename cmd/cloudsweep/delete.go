package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudsweep/cloudsweep/internal/models"
	"github.com/cloudsweep/cloudsweep/pkg/awsx"
	"github.com/cloudsweep/cloudsweep/pkg/executor"
	"github.com/cloudsweep/cloudsweep/pkg/formatter"
	"github.com/cloudsweep/cloudsweep/pkg/report"
)

func newDeleteCmd() *cobra.Command {
	var (
		reportPath  string
		force       bool
		interactive bool
		backup      bool
		protectTags []string
		minAgeDays  int
		maxCount    int
		auditPath   string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Execute guarded deletions from a scan report",
		Long: `delete reads a scan report and processes every DELETE-classified
resource through the safety gates. The default mode is a dry run that
simulates every deletion; pass --force to delete for real.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(reportPath)
			if err != nil {
				return fmt.Errorf("error opening report: %w", err)
			}
			rows, err := report.Read(f)
			f.Close()
			if err != nil {
				return err
			}

			opts := models.RunOptions{
				DryRun:             !force,
				Interactive:        interactive,
				BackupBeforeDelete: backup,
				ProtectTagPatterns: protectTags,
			}
			if cmd.Flags().Changed("min-age-days") {
				opts.MinAgeDaysOverride = &minAgeDays
			}
			if maxCount > 0 {
				opts.MaxResources = &maxCount
			}

			if opts.DryRun {
				fmt.Println("Running in dry-run mode. No resources will be deleted. Pass --force to delete.")
			} else {
				fmt.Println("Running in LIVE mode. Resources will be permanently deleted.")
			}

			audit, err := executor.OpenAuditLog(auditPath)
			if err != nil {
				return err
			}
			defer audit.Close()

			var confirmer executor.Confirmer
			if interactive {
				confirmer = executor.NewPromptConfirmer(os.Stdin, os.Stdout)
			}

			router := awsx.NewRouter()
			exec := executor.New(opts, router, router, router, confirmer, audit)

			attempts, runErr := exec.Run(cmd.Context(), rows)

			formatter.PrintAttemptsTable(attempts)
			formatter.PrintRunSummary(models.Summarize(attempts), opts.DryRun)
			fmt.Printf("\nAudit trail: %s (run %s)\n", auditPath, audit.RunID())

			return runErr
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "cloudsweep-report.csv",
		"Path to the scan report to execute")
	cmd.Flags().BoolVar(&force, "force", false,
		"Perform real deletions instead of the default dry run")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Confirm each deletion at the prompt")
	cmd.Flags().BoolVarP(&backup, "backup", "b", false,
		"Create a recovery artifact before each deletion where the kind supports one")
	cmd.Flags().StringSliceVar(&protectTags, "protect-tag", nil,
		"Tags that protect resources from deletion, as key or key=value (repeatable)")
	cmd.Flags().IntVar(&minAgeDays, "min-age-days", 0,
		"Skip resources younger than this many days; unknown ages are skipped too")
	cmd.Flags().IntVar(&maxCount, "max", 0,
		"Process at most this many resources (0 = no limit)")
	cmd.Flags().StringVar(&auditPath, "audit-log", "cloudsweep-audit.log",
		"Path the append-only audit trail is written to")

	return cmd
}
