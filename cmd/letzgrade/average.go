package main

import (
	"github.com/spf13/cobra"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

func newAverageCmd() *cobra.Command {
	var (
		entries   []string
		fraction  bool
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "average",
		Short: "Weighted average of a list of grades",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd.ErrOrStderr())
			mode, err := cfg.Grades.Mode()
			if err != nil {
				return err
			}
			if fraction {
				mode = grades.WeightFraction
			}
			parsed, err := parseEntries(entries, mode, cfg.Grades.Scale)
			if err != nil {
				return err
			}
			renderer, err := newRenderer(firstNonEmpty(outputFmt, cfg.Output.Format), cfg.Grades.Scale)
			if err != nil {
				return err
			}
			return renderer.RenderAverage(cmd.OutOrStdout(), grades.Aggregate(parsed))
		},
	}

	cmd.Flags().StringArrayVar(&entries, "entry", nil, "Grade as score:weight (repeatable)")
	cmd.Flags().BoolVar(&fraction, "fraction", false, "Read weights as fractions of the whole")
	cmd.Flags().StringVar(&outputFmt, "output", "", "Output format: text or json (default: config)")

	return cmd
}
