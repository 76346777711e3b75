package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// TerminalRenderer renders grade results as colored terminal output.
type TerminalRenderer struct {
	// Scale colours averages relative to the pass mark. Zero means the
	// default 0-60 scale.
	Scale grades.Scale
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func (r *TerminalRenderer) scale() grades.Scale {
	if r.Scale.IsZero() {
		return grades.DefaultScale
	}
	return r.Scale
}

// averageColor is green at or above the pass mark (half the scale),
// yellow slightly below it and red otherwise.
func averageColor(res grades.Result, scale grades.Scale) string {
	v, ok := res.Value()
	if noColor() || !ok {
		return ""
	}
	pass := scale.Min + (scale.Max-scale.Min)/2
	switch {
	case v >= pass:
		return colorGreen
	case v >= pass-(scale.Max-scale.Min)/12:
		return colorYellow
	default:
		return colorRed
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) RenderReport(w io.Writer, report *grades.YearReport) error {
	scale := r.scale()

	fmt.Fprintf(w, "%s\n",
		bold(fmt.Sprintf("LetzGrade: %s, average %s",
			report.Year, colored(FormatScaled(report.Average, scale), averageColor(report.Average, scale)))))
	fmt.Fprintf(w, "%s\n\n", dim("Year rule: "+string(report.Rule)))

	for _, s := range report.Semesters {
		fmt.Fprintf(w, "%s  %s\n", bold(s.Name),
			colored(FormatScaled(s.Average, scale), averageColor(s.Average, scale)))
		r.renderCourses(w, s.Courses, scale)
		fmt.Fprintln(w)
	}

	if len(report.Courses) > 0 {
		if len(report.Semesters) > 0 {
			fmt.Fprintln(w, bold("Courses"))
		}
		r.renderCourses(w, report.Courses, scale)
		fmt.Fprintln(w)
	}

	if len(report.Semesters) == 0 && len(report.Courses) == 0 {
		fmt.Fprintln(w, "No courses.")
		fmt.Fprintln(w)
	}
	return nil
}

func (r *TerminalRenderer) renderCourses(w io.Writer, courses []grades.CourseReport, scale grades.Scale) {
	width := 0
	for _, c := range courses {
		if n := len([]rune(c.Name)); n > width {
			width = n
		}
	}
	for _, c := range courses {
		pad := strings.Repeat(" ", width-len([]rune(c.Name)))
		fmt.Fprintf(w, "  %s%s  %s  %s\n",
			c.Name, pad,
			colored(fmt.Sprintf("%6s", FormatAverage(c.Average)), averageColor(c.Average, scale)),
			dim(fmt.Sprintf("coeff %g, %s", c.Credits, plural(c.GradeCount, "grade"))))
	}
}

func (r *TerminalRenderer) RenderTarget(w io.Writer, q grades.TargetQuery, res grades.TargetResult) error {
	scale := q.Scale()

	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("Target %g / %g", q.Target, scale.Max)))
	fmt.Fprintf(w, "Current weighted points: %.2f\n", res.CurrentWeighted)
	fmt.Fprintf(w, "Remaining weight:        %.2f%%\n\n", res.RemainingWeight*100)

	color := colorGreen
	if !res.OK {
		color = colorRed
	}
	if res.Reason == grades.ReasonNormal {
		fmt.Fprintf(w, "Required: %s\n", colored(fmt.Sprintf("%.2f / %g", res.Required, scale.Max), color))
	}
	fmt.Fprintln(w, colored(TargetMessage(res, scale), color))
	return nil
}

func (r *TerminalRenderer) RenderAverage(w io.Writer, result grades.Result) error {
	scale := r.scale()
	fmt.Fprintf(w, "Average: %s\n", colored(FormatScaled(result, scale), averageColor(result, scale)))
	fmt.Fprintf(w, "%s\n", dim(fmt.Sprintf("Total weight: %g", result.TotalWeight)))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
