package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

func newTargetCmd() *cobra.Command {
	var (
		target      float64
		entries     []string
		fraction    bool
		minGrade    float64
		maxGrade    float64
		totalWeight float64
		outputFmt   string
	)

	cmd := &cobra.Command{
		Use:   "target",
		Short: "Score needed on the remaining weight to reach a target",
		Long: `Computes the minimum score needed on the weight not yet covered by
--entry grades so that the final weighted grade reaches --target.

Example:
  letzgrade target --target 30 --entry 40:30 --entry 20:30
  letzgrade target --target 45 --entry 50:1/4 --fraction`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd.ErrOrStderr())

			scale := cfg.Grades.Scale
			if cmd.Flags().Changed("min") {
				scale.Min = minGrade
			}
			if cmd.Flags().Changed("max") {
				scale.Max = maxGrade
			}
			if scale.Max <= scale.Min {
				return fmt.Errorf("--max (%g) must be greater than --min (%g)", scale.Max, scale.Min)
			}
			if !scale.Contains(target) {
				return fmt.Errorf("--target %g is outside the scale %g-%g", target, scale.Min, scale.Max)
			}

			mode, err := cfg.Grades.Mode()
			if err != nil {
				return err
			}
			if fraction {
				mode = grades.WeightFraction
			}
			parsed, err := parseEntries(entries, mode, scale)
			if err != nil {
				return err
			}

			total := cfg.Grades.TotalWeight
			if cmd.Flags().Changed("total-weight") {
				total = totalWeight
			}
			// Fraction weights are converted to percent, so they only add up
			// against a total of 100.
			if mode == grades.WeightFraction && total != 100 {
				return fmt.Errorf("fraction weights are read as percentages; --total-weight must be 100, got %g", total)
			}

			q := grades.TargetQuery{
				Entries:        parsed,
				Target:         target,
				TotalWeightPct: total,
				MinGrade:       scale.Min,
				MaxGrade:       scale.Max,
			}
			renderer, err := newRenderer(firstNonEmpty(outputFmt, cfg.Output.Format), scale)
			if err != nil {
				return err
			}
			return renderer.RenderTarget(cmd.OutOrStdout(), q, grades.RequiredForTarget(q))
		},
	}

	cmd.Flags().Float64Var(&target, "target", 0, "Target final grade (required)")
	cmd.Flags().StringArrayVar(&entries, "entry", nil, "Known grade as score:weight (repeatable)")
	cmd.Flags().BoolVar(&fraction, "fraction", false, "Read weights as fractions of the whole (1/2, 0.25)")
	cmd.Flags().Float64Var(&minGrade, "min", 0, "Lowest grade of the scale (default: config)")
	cmd.Flags().Float64Var(&maxGrade, "max", 0, "Highest grade of the scale (default: config)")
	cmd.Flags().Float64Var(&totalWeight, "total-weight", 0, "Unit the weights are expressed in (default: config, 100; must be 100 with --fraction)")
	cmd.Flags().StringVar(&outputFmt, "output", "", "Output format: text or json (default: config)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
