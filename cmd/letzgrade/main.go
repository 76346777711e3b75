// Package main provides the letzgrade CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "letzgrade",
		Short: "Weighted grade averages and target grades",
		Long: `LetzGrade computes weighted grade averages for courses, semesters and school
years, and solves for the score needed on the remaining exams to reach a target.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newTargetCmd(),
		newAverageCmd(),
		newReportCmd(),
		newCatalogCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
