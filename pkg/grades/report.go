package grades

// YearReport is the computed view of a study program: every course, semester
// and year result at once. Immutable once built.
type YearReport struct {
	YearID    string           `json:"year_id,omitempty"`
	Year      string           `json:"year"`
	Rule      YearRule         `json:"rule"`
	Average   Result           `json:"average"`
	Semesters []SemesterReport `json:"semesters,omitempty"`
	Courses   []CourseReport   `json:"courses,omitempty"`
}

// SemesterReport is the computed view of one semester.
type SemesterReport struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Average Result         `json:"average"`
	Courses []CourseReport `json:"courses"`
}

// CourseReport is the computed view of one course.
type CourseReport struct {
	ID         string  `json:"id,omitempty"`
	Code       string  `json:"code,omitempty"`
	Name       string  `json:"name"`
	Credits    float64 `json:"credits"`
	GradeCount int     `json:"grade_count"`
	Average    Result  `json:"average"`
}

// BuildReport computes every level of y under rule.
func BuildReport(y Year, rule YearRule) YearReport {
	rule = rule.OrDefault()
	report := YearReport{
		YearID:  y.ID,
		Year:    y.Name,
		Rule:    rule,
		Average: y.Average(rule),
		Courses: courseReports(y.Courses),
	}
	for _, s := range y.Semesters {
		report.Semesters = append(report.Semesters, SemesterReport{
			ID:      s.ID,
			Name:    s.Name,
			Average: s.Average(),
			Courses: courseReports(s.Courses),
		})
	}
	return report
}

func courseReports(courses []Course) []CourseReport {
	if len(courses) == 0 {
		return nil
	}
	out := make([]CourseReport, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseReport{
			ID:         c.ID,
			Code:       c.Code,
			Name:       c.Name,
			Credits:    c.Credits,
			GradeCount: len(c.Grades),
			Average:    c.Average(),
		})
	}
	return out
}
