package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudsweep/cloudsweep/internal/version"
)

func main() {
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   "cloudsweep",
		Short: "CLI tool to find and safely delete unused cloud resources",
		Long: `cloudsweep scans AWS accounts for idle and unused resources,
classifies each one as DELETE, REVIEW, KEEP, or IGNORE with a cost
estimate, and executes guarded deletions from a previously written
scan report.`,
		Run: func(cmd *cobra.Command, args []string) {
			if showVersion {
				info := version.Get()
				fmt.Printf("cloudsweep version %s (built: %s, commit: %s, %s)\n",
					info.Version, info.BuildDate, info.GitCommit, info.GoVersion)
				return
			}
			_ = cmd.Help()
		},
	}

	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newDeleteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
