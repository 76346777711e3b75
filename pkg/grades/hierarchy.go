package grades

// MaxSemesters is the number of semesters a school year can be split into.
const MaxSemesters = 2

// Grade is a recorded exam grade.
type Grade struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	ExamName    string  `json:"exam_name" yaml:"exam_name"`
	Score       float64 `json:"score" yaml:"score"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Entry returns the grade as an aggregation entry.
func (g Grade) Entry() Entry {
	return Entry{Score: g.Score, Weight: g.Weight}
}

// Course holds the grades of one subject. Credits weight the course when it
// is rolled up into a semester or year.
type Course struct {
	ID      string  `json:"id,omitempty" yaml:"id,omitempty"`
	Code    string  `json:"code,omitempty" yaml:"code,omitempty"`
	Name    string  `json:"name" yaml:"name"`
	Credits float64 `json:"credits" yaml:"credits"`
	Grades  []Grade `json:"grades" yaml:"grades"`
}

// Average is the weighted average of the course's grades.
func (c Course) Average() Result {
	entries := make([]Entry, 0, len(c.Grades))
	for _, g := range c.Grades {
		entries = append(entries, g.Entry())
	}
	return Aggregate(entries)
}

// Semester groups courses.
type Semester struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string   `json:"name" yaml:"name"`
	Courses []Course `json:"courses" yaml:"courses"`
}

// Average rolls the course averages up by credits. TotalWeight is the sum of
// credits of the courses that have an average.
func (s Semester) Average() Result {
	return rollupCourses(s.Courses)
}

// Year is one study program. A year is either split into Semesters or holds
// its Courses directly.
type Year struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Semesters []Semester `json:"semesters,omitempty" yaml:"semesters,omitempty"`
	Courses   []Course   `json:"courses,omitempty" yaml:"courses,omitempty"`
}

// Average computes the year result under rule. Courses held directly by the
// year are always rolled up by credits. An empty rule means credit-weighted.
func (y Year) Average(rule YearRule) Result {
	if len(y.Semesters) == 0 {
		return rollupCourses(y.Courses)
	}

	results := make([]Result, 0, len(y.Semesters)+1)
	for _, s := range y.Semesters {
		results = append(results, s.Average())
	}
	if len(y.Courses) > 0 {
		results = append(results, rollupCourses(y.Courses))
	}

	if rule.OrDefault() == YearRuleSemesterMean {
		return Mean(results)
	}

	children := make([]Child, 0, len(results))
	for _, r := range results {
		children = append(children, Child{Average: r.Average, Weight: r.TotalWeight})
	}
	return Rollup(children)
}

func rollupCourses(courses []Course) Result {
	children := make([]Child, 0, len(courses))
	for _, c := range courses {
		children = append(children, Child{Average: c.Average().Average, Weight: c.Credits})
	}
	return Rollup(children)
}
