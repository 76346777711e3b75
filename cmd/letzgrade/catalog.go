package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/letzgrade/letzgrade/pkg/catalog"
)

func newCatalogCmd() *cobra.Command {
	var (
		file string
		year string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List catalog years, or the courses of one year",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd.ErrOrStderr())
			path := firstNonEmpty(file, cfg.Catalog.Path)
			if path == "" {
				return fmt.Errorf("no catalog: pass --file or set catalog.path in .letzgrade/config.yaml")
			}
			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if year == "" {
				printYears(w, cat)
				return nil
			}
			def, ok := cat.Find(year)
			if !ok {
				return fmt.Errorf("year %q is not in the catalog", year)
			}
			printYear(w, def)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to classes.json (default: config)")
	cmd.Flags().StringVar(&year, "year", "", "Show the courses of one year, e.g. 5C")

	return cmd
}

func printYears(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintf(w, "%s %s: %d years\n", cat.System, cat.Version, len(cat.Years))
	for _, y := range cat.Years {
		fmt.Fprintf(w, "  %-8s %2d courses, total coeff %g\n", y.Year, len(y.Courses), y.TotalCoeff())
	}
}

func printYear(w io.Writer, y catalog.YearDef) {
	fmt.Fprintf(w, "%s: total coeff %g\n", y.Year, y.TotalCoeff())
	for _, c := range y.Courses {
		coeff := "-"
		if c.Coeff != nil {
			coeff = fmt.Sprintf("%g", *c.Coeff)
		}
		fmt.Fprintf(w, "  %-8s %-40s %s\n", c.Code, c.Name, coeff)
		for _, sub := range c.SubSubjects {
			fmt.Fprintf(w, "    %-6s %s\n", sub.Code, sub.Name)
		}
	}
}
