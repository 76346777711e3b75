// Package catalog reads the school-year catalog: the courses and
// coefficients of every year of a school system (classes.json).
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// Catalog is the decoded classes.json document.
type Catalog struct {
	Version string    `json:"version"`
	System  string    `json:"system"`
	Years   []YearDef `json:"years"`
}

// YearDef lists the courses of one school year, e.g. "5C".
type YearDef struct {
	Year    string      `json:"year"`
	Courses []CourseDef `json:"courses"`
}

// CourseDef is a catalog course. Coeff is nil when the grid gives lessons
// but no coefficient for that year.
type CourseDef struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Coeff       *float64    `json:"coeff"`
	SubSubjects []CourseDef `json:"subsubjects,omitempty"`
}

// Credits returns the coefficient, or 0 when missing.
func (c CourseDef) Credits() float64 {
	if c.Coeff == nil {
		return 0
	}
	return *c.Coeff
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return c, nil
}

// Decode parses a catalog document and sorts its years.
func Decode(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	for i, y := range c.Years {
		if strings.TrimSpace(y.Year) == "" {
			return nil, fmt.Errorf("catalog year #%d has no name", i)
		}
	}
	sortYears(c.Years)
	return &c, nil
}

// Find returns the year definition for name (case-insensitive).
func (c *Catalog) Find(name string) (YearDef, bool) {
	for _, y := range c.Years {
		if strings.EqualFold(y.Year, strings.TrimSpace(name)) {
			return y, true
		}
	}
	return YearDef{}, false
}

// YearNames returns the catalog years in display order.
func (c *Catalog) YearNames() []string {
	names := make([]string, 0, len(c.Years))
	for _, y := range c.Years {
		names = append(names, y.Year)
	}
	return names
}

// TotalCoeff sums the coefficients of the year's top-level courses.
// Sub-subjects are part of their parent and not counted again.
func (y YearDef) TotalCoeff() float64 {
	var total float64
	for _, c := range y.Courses {
		total += c.Credits()
	}
	return total
}

// GradeCourses converts the year definition into empty grade courses, with
// credits taken from the coefficients.
func (y YearDef) GradeCourses() []grades.Course {
	out := make([]grades.Course, 0, len(y.Courses))
	for _, c := range y.Courses {
		out = append(out, grades.Course{
			Code:    c.Code,
			Name:    c.Name,
			Credits: c.Credits(),
		})
	}
	return out
}

// sortYears orders years from 7 down to 1, then by name. "7C" is the first
// year of secondary school.
func sortYears(years []YearDef) {
	sort.SliceStable(years, func(i, j int) bool {
		ni, nj := yearLevel(years[i].Year), yearLevel(years[j].Year)
		if ni != nj {
			return ni > nj
		}
		return years[i].Year < years[j].Year
	})
}

func yearLevel(name string) int {
	if name == "" || name[0] < '0' || name[0] > '9' {
		return 0
	}
	return int(name[0] - '0')
}
