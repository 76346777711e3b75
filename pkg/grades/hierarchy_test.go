package grades_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

func sampleYear() grades.Year {
	return grades.Year{
		ID:   "y1",
		Name: "5C",
		Semesters: []grades.Semester{
			{
				ID:   "s1",
				Name: "semester1",
				Courses: []grades.Course{
					{Name: "Mathématiques", Credits: 4, Grades: []grades.Grade{
						{ExamName: "Devoir 1", Score: 40, Weight: 30},
						{ExamName: "Devoir 2", Score: 20, Weight: 30},
					}},
					{Name: "Français", Credits: 2, Grades: []grades.Grade{
						{ExamName: "Rédaction", Score: 45, Weight: 1},
					}},
					{Name: "Éducation physique", Credits: 1},
				},
			},
			{
				ID:   "s2",
				Name: "semester2",
				Courses: []grades.Course{
					{Name: "Mathématiques", Credits: 4, Grades: []grades.Grade{
						{ExamName: "Devoir 3", Score: 50, Weight: 1},
					}},
				},
			},
		},
	}
}

func TestCourseAverage(t *testing.T) {
	c := grades.Course{Credits: 3, Grades: []grades.Grade{
		{Score: 40, Weight: 30},
		{Score: 20, Weight: 30},
		{Score: 60, Weight: 0},
	}}
	v, ok := c.Average().Value()
	require.True(t, ok)
	assert.Equal(t, 30.0, v)
	assert.Equal(t, 60.0, c.Average().TotalWeight)

	assert.Nil(t, grades.Course{Credits: 3}.Average().Average)
}

func TestSemesterAverageIsCreditWeighted(t *testing.T) {
	s := sampleYear().Semesters[0]
	got := s.Average()

	// (30*4 + 45*2) / 6; the course without grades is ignored.
	v, ok := got.Value()
	require.True(t, ok)
	assert.InDelta(t, 35.0, v, 1e-9)
	assert.Equal(t, 6.0, got.TotalWeight)
}

func TestSemesterCourseWithoutCreditsIgnored(t *testing.T) {
	s := grades.Semester{Courses: []grades.Course{
		{Credits: 0, Grades: []grades.Grade{{Score: 10, Weight: 1}}},
		{Credits: 2, Grades: []grades.Grade{{Score: 50, Weight: 1}}},
	}}
	v, ok := s.Average().Value()
	require.True(t, ok)
	assert.Equal(t, 50.0, v)
}

func TestYearAverageRules(t *testing.T) {
	y := sampleYear()

	t.Run("credit weighted", func(t *testing.T) {
		got := y.Average(grades.YearRuleCreditWeighted)
		// semester1 = 35 over 6 credits, semester2 = 50 over 4 credits
		v, ok := got.Value()
		require.True(t, ok)
		assert.InDelta(t, (35.0*6+50.0*4)/10, v, 1e-9)
		assert.Equal(t, 10.0, got.TotalWeight)
	})

	t.Run("empty rule defaults to credit weighted", func(t *testing.T) {
		assert.Equal(t, y.Average(grades.YearRuleCreditWeighted), y.Average(""))
	})

	t.Run("semester mean", func(t *testing.T) {
		v, ok := y.Average(grades.YearRuleSemesterMean).Value()
		require.True(t, ok)
		assert.InDelta(t, 42.5, v, 1e-9)
	})

	t.Run("single semester with grades", func(t *testing.T) {
		one := sampleYear()
		one.Semesters[1].Courses = nil
		for _, rule := range []grades.YearRule{grades.YearRuleCreditWeighted, grades.YearRuleSemesterMean} {
			v, ok := one.Average(rule).Value()
			require.True(t, ok)
			assert.InDelta(t, 35.0, v, 1e-9, string(rule))
		}
	})

	t.Run("no grades at all", func(t *testing.T) {
		empty := grades.Year{Semesters: []grades.Semester{{Name: "semester1"}, {Name: "semester2"}}}
		assert.Nil(t, empty.Average(grades.YearRuleCreditWeighted).Average)
		assert.Nil(t, empty.Average(grades.YearRuleSemesterMean).Average)
	})
}

func TestYearWithoutSemesters(t *testing.T) {
	y := grades.Year{Name: "1GIG", Courses: []grades.Course{
		{Name: "Math", Credits: 3, Grades: []grades.Grade{{Score: 30, Weight: 1}}},
		{Name: "Chimie", Credits: 1, Grades: []grades.Grade{{Score: 50, Weight: 1}}},
	}}
	for _, rule := range []grades.YearRule{grades.YearRuleCreditWeighted, grades.YearRuleSemesterMean} {
		v, ok := y.Average(rule).Value()
		require.True(t, ok)
		assert.InDelta(t, 35.0, v, 1e-9)
	}
}

func TestBuildReport(t *testing.T) {
	report := grades.BuildReport(sampleYear(), "")

	assert.Equal(t, "5C", report.Year)
	assert.Equal(t, "y1", report.YearID)
	assert.Equal(t, grades.YearRuleCreditWeighted, report.Rule)
	require.Len(t, report.Semesters, 2)
	assert.Empty(t, report.Courses)

	want := []grades.CourseReport{
		{Name: "Mathématiques", Credits: 4, GradeCount: 2, Average: grades.Result{Average: f(30), TotalWeight: 60}},
		{Name: "Français", Credits: 2, GradeCount: 1, Average: grades.Result{Average: f(45), TotalWeight: 1}},
		{Name: "Éducation physique", Credits: 1, GradeCount: 0, Average: grades.Result{}},
	}
	if diff := cmp.Diff(want, report.Semesters[0].Courses); diff != "" {
		t.Errorf("semester1 courses mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, sampleYear().Semesters[0].Average(), report.Semesters[0].Average)
	assert.Equal(t, sampleYear().Average(grades.YearRuleCreditWeighted), report.Average)
}

func TestYearRule(t *testing.T) {
	assert.True(t, grades.YearRuleCreditWeighted.Valid())
	assert.True(t, grades.YearRuleSemesterMean.Valid())
	assert.False(t, grades.YearRule("median").Valid())
	assert.Equal(t, grades.YearRuleSemesterMean, grades.YearRuleSemesterMean.OrDefault())
	assert.Equal(t, grades.YearRuleCreditWeighted, grades.YearRule("").OrDefault())
}
