package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/letzgrade/letzgrade/internal/report"
	"github.com/letzgrade/letzgrade/internal/storage"
	"github.com/letzgrade/letzgrade/pkg/config"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

// localUser owns the reports archived by the CLI.
const localUser = "local"

func newReportCmd() *cobra.Command {
	var (
		file      string
		rule      string
		outputFmt string
		archive   bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Course, semester and year averages of a school year",
		Long: `Reads a school year from a YAML file and prints every course, semester and
year average.

The file lists either semesters or courses directly:

  name: 5C
  semesters:
    - name: semester1
      courses:
        - name: Mathématiques
          credits: 4
          grades:
            - {exam_name: Devoir 1, score: 40, weight: 30}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd.ErrOrStderr())

			year, err := readYear(file)
			if err != nil {
				return err
			}
			if len(year.Semesters) > grades.MaxSemesters {
				return fmt.Errorf("%s: a year has at most %d semesters, got %d", file, grades.MaxSemesters, len(year.Semesters))
			}

			yr := grades.YearRule(firstNonEmpty(rule, string(cfg.Grades.YearRule)))
			if !yr.OrDefault().Valid() {
				return fmt.Errorf("unknown rule %q (want %s or %s)", yr, grades.YearRuleCreditWeighted, grades.YearRuleSemesterMean)
			}
			built := grades.BuildReport(*year, yr)

			renderer, err := newRenderer(firstNonEmpty(outputFmt, cfg.Output.Format), cfg.Grades.Scale)
			if err != nil {
				return err
			}
			if err := renderer.RenderReport(cmd.OutOrStdout(), &built); err != nil {
				return fmt.Errorf("rendering: %w", err)
			}

			if archive {
				path, err := archiveReport(cmd, built)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Report saved: %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the year YAML file (required)")
	cmd.Flags().StringVar(&rule, "rule", "", "Year rule: credit_weighted or semester_mean (default: config)")
	cmd.Flags().StringVar(&outputFmt, "output", "", "Output format: text or json (default: config)")
	cmd.Flags().BoolVar(&archive, "archive", false, "Save the report under ~/.cache/letzgrade/reports")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readYear(path string) (*grades.Year, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading year file: %w", err)
	}
	var y grades.Year
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &y, nil
}

// archiveReport writes the report to the local report directory and returns
// its path.
func archiveReport(cmd *cobra.Command, built grades.YearReport) (string, error) {
	doc := report.Archived{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Report:    built,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	dir := config.ReportDir()
	if err := storage.NewLocal(dir).PutReport(cmd.Context(), localUser, doc.ID, data); err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}
	return filepath.Join(dir, localUser, "reports", doc.ID+".json"), nil
}
