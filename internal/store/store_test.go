package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// testStore exercises the behaviour every Store implementation shares.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("program lifecycle", func(t *testing.T) {
		s := newStore(t)

		p, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "5C"})
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, grades.YearRuleCreditWeighted, p.YearRule)

		_, err = s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "4C", YearRule: grades.YearRuleSemesterMean})
		require.NoError(t, err)
		_, err = s.CreateProgram(ctx, NewProgram{UserID: "bob", Name: "5C"})
		require.NoError(t, err)

		_, err = s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "5C"})
		assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

		list, err := s.ListPrograms(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "4C", list[0].Name)
		assert.Equal(t, grades.YearRuleSemesterMean, list[0].YearRule)

		got, err := s.GetProgram(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.UserID)

		require.NoError(t, s.DeleteProgram(ctx, p.ID))
		_, err = s.GetProgram(ctx, p.ID)
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		assert.True(t, errors.Is(s.DeleteProgram(ctx, p.ID), ErrNotFound))
	})

	t.Run("semester limit", func(t *testing.T) {
		s := newStore(t)
		p, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "5C"})
		require.NoError(t, err)

		s1, err := s.CreateSemester(ctx, p.ID, "semester1")
		require.NoError(t, err)
		assert.Equal(t, 1, s1.Position)

		_, err = s.CreateSemester(ctx, p.ID, "semester1")
		assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

		s2, err := s.CreateSemester(ctx, p.ID, "semester2")
		require.NoError(t, err)
		assert.Equal(t, 2, s2.Position)

		_, err = s.CreateSemester(ctx, p.ID, "semester3")
		assert.True(t, errors.Is(err, ErrTooManySemesters), "got %v", err)

		_, err = s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "4C", Semesters: []string{"a", "b", "c"}})
		assert.True(t, errors.Is(err, ErrTooManySemesters), "got %v", err)

		list, err := s.ListSemesters(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "semester1", list[0].Name)

		_, err = s.CreateSemester(ctx, "00000000-0000-0000-0000-000000000000", "semester1")
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("create program from catalog", func(t *testing.T) {
		s := newStore(t)
		seed := []grades.Course{
			{Code: "MATHE", Name: "Mathématiques", Credits: 4},
			{Code: "FRANC", Name: "Français", Credits: 3},
		}

		p, err := s.CreateProgram(ctx, NewProgram{
			UserID:    "alice",
			Name:      "5C",
			Semesters: []string{"semester1", "semester2"},
			Courses:   seed,
		})
		require.NoError(t, err)

		courses, err := s.ListCourses(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, courses, 4)
		for _, c := range courses {
			require.NotNil(t, c.SemesterID)
		}
		assert.Equal(t, "MATHE", courses[0].Code)
		assert.Equal(t, 4.0, courses[0].Credits)

		flat, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "1GIG", Courses: seed})
		require.NoError(t, err)
		courses, err = s.ListCourses(ctx, flat.ID)
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Nil(t, courses[0].SemesterID)
	})

	t.Run("courses and grades", func(t *testing.T) {
		s := newStore(t)
		p, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "5C"})
		require.NoError(t, err)
		other, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "4C", Semesters: []string{"semester1"}})
		require.NoError(t, err)
		otherSems, err := s.ListSemesters(ctx, other.ID)
		require.NoError(t, err)

		_, err = s.CreateCourse(ctx, Course{ProgramID: p.ID, SemesterID: &otherSems[0].ID, Name: "Math"})
		assert.True(t, errors.Is(err, ErrNotFound), "semester of another program, got %v", err)

		c, err := s.CreateCourse(ctx, Course{ProgramID: p.ID, Name: "Math", Credits: 4})
		require.NoError(t, err)

		g1, err := s.AddGrade(ctx, Grade{CourseID: c.ID, ExamName: "Devoir 1", Score: 40, Weight: 30})
		require.NoError(t, err)
		_, err = s.AddGrade(ctx, Grade{CourseID: c.ID, ExamName: "Devoir 2", Score: 20, Weight: 30})
		require.NoError(t, err)

		list, err := s.ListGrades(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Devoir 1", list[0].ExamName)

		updated, err := s.UpdateGrade(ctx, Grade{ID: g1.ID, ExamName: "Devoir 1b", Score: 50, Weight: 30, Description: "retake"})
		require.NoError(t, err)
		assert.Equal(t, 50.0, updated.Score)
		assert.Equal(t, c.ID, updated.CourseID)

		got, err := s.GetGrade(ctx, g1.ID)
		require.NoError(t, err)
		assert.Equal(t, "retake", got.Description)

		require.NoError(t, s.UpdateCourseCredits(ctx, c.ID, 2))
		gc, err := s.GetCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.0, gc.Credits)

		require.NoError(t, s.DeleteGrade(ctx, g1.ID))
		assert.True(t, errors.Is(s.DeleteGrade(ctx, g1.ID), ErrNotFound))

		_, err = s.AddGrade(ctx, Grade{CourseID: "00000000-0000-0000-0000-000000000000", ExamName: "x", Score: 1, Weight: 1})
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

		require.NoError(t, s.DeleteCourse(ctx, c.ID))
		_, err = s.ListGrades(ctx, c.ID)
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		_, err = s.UpdateGrade(ctx, Grade{ID: g1.ID, ExamName: "gone", Score: 1, Weight: 1})
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("load year", func(t *testing.T) {
		s := newStore(t)
		p, err := s.CreateProgram(ctx, NewProgram{
			UserID:    "alice",
			Name:      "5C",
			YearRule:  grades.YearRuleSemesterMean,
			Semesters: []string{"semester1", "semester2"},
			Courses:   []grades.Course{{Name: "Math", Credits: 4}, {Name: "Français", Credits: 2}},
		})
		require.NoError(t, err)

		courses, err := s.ListCourses(ctx, p.ID)
		require.NoError(t, err)
		// courses[0] is Math in semester1, courses[2] is Math in semester2
		for _, g := range []Grade{
			{CourseID: courses[0].ID, ExamName: "D1", Score: 40, Weight: 30},
			{CourseID: courses[0].ID, ExamName: "D2", Score: 20, Weight: 30},
			{CourseID: courses[1].ID, ExamName: "R1", Score: 45, Weight: 1},
			{CourseID: courses[2].ID, ExamName: "D3", Score: 50, Weight: 1},
		} {
			_, err := s.AddGrade(ctx, g)
			require.NoError(t, err)
		}

		// Grades of another program must not leak into the snapshot.
		other, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "4C", Courses: []grades.Course{{Name: "Math", Credits: 4}}})
		require.NoError(t, err)
		otherCourses, err := s.ListCourses(ctx, other.ID)
		require.NoError(t, err)
		_, err = s.AddGrade(ctx, Grade{CourseID: otherCourses[0].ID, ExamName: "X1", Score: 10, Weight: 1})
		require.NoError(t, err)

		y, err := s.LoadYear(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "5C", y.Name)
		require.Len(t, y.Semesters, 2)
		assert.Empty(t, y.Courses)
		require.Len(t, y.Semesters[0].Courses, 2)
		require.Len(t, y.Semesters[0].Courses[0].Grades, 2)
		assert.Equal(t, "D1", y.Semesters[0].Courses[0].Grades[0].ExamName)
		assert.Equal(t, "D2", y.Semesters[0].Courses[0].Grades[1].ExamName)
		require.Len(t, y.Semesters[1].Courses, 2)
		assert.Len(t, y.Semesters[1].Courses[0].Grades, 1)
		assert.Empty(t, y.Semesters[1].Courses[1].Grades)

		s1, ok := y.Semesters[0].Average().Value()
		require.True(t, ok)
		assert.InDelta(t, 35.0, s1, 1e-9)

		avg, ok := y.Average(grades.YearRuleSemesterMean).Value()
		require.True(t, ok)
		assert.InDelta(t, 42.5, avg, 1e-9)

		_, err = s.LoadYear(ctx, "00000000-0000-0000-0000-000000000000")
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("reports", func(t *testing.T) {
		s := newStore(t)
		p, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "5C"})
		require.NoError(t, err)

		avg := 32.5
		r1, err := s.RecordReport(ctx, Report{UserID: "alice", ProgramID: p.ID, Year: "5C", Rule: grades.YearRuleCreditWeighted, Average: &avg, StorageRef: "alice/reports/a.json"})
		require.NoError(t, err)
		assert.NotEmpty(t, r1.ID)

		r2, err := s.RecordReport(ctx, Report{UserID: "alice", ProgramID: p.ID, Year: "5C", Rule: grades.YearRuleCreditWeighted, StorageRef: "alice/reports/b.json"})
		require.NoError(t, err)

		got, err := s.GetReport(ctx, r1.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Average)
		assert.Equal(t, 32.5, *got.Average)

		list, err := s.ListReports(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Nil(t, list[0].Average)
		assert.Equal(t, r2.ID, list[0].ID)

		_, err = s.GetReport(ctx, "00000000-0000-0000-0000-000000000000")
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("exams", func(t *testing.T) {
		s := newStore(t)

		chem, err := s.CreateExam(ctx, Exam{UserID: "alice", Name: "Chemistry", Date: "2025-03-14"})
		require.NoError(t, err)
		assert.NotEmpty(t, chem.ID)
		assert.Equal(t, "2025-03-14", chem.Date)

		math, err := s.CreateExam(ctx, Exam{UserID: "alice", Name: "Math", Description: "chapters 1-4", Date: "2025-02-03"})
		require.NoError(t, err)
		bio, err := s.CreateExam(ctx, Exam{UserID: "alice", Name: "Biology", Date: "2025-03-14"})
		require.NoError(t, err)
		_, err = s.CreateExam(ctx, Exam{UserID: "bob", Name: "Math", Date: "2025-02-03"})
		require.NoError(t, err)

		list, err := s.ListExams(ctx, "alice", "", "")
		require.NoError(t, err)
		var ids []string
		for _, e := range list {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{math.ID, chem.ID, bio.ID}, ids)
		assert.Equal(t, "chapters 1-4", list[0].Description)

		list, err = s.ListExams(ctx, "alice", "2025-03-01", "2025-03-14")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, chem.ID, list[0].ID)

		list, err = s.ListExams(ctx, "alice", "", "2025-02-03")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Math", list[0].Name)

		got, err := s.GetExam(ctx, bio.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.UserID)

		require.NoError(t, s.DeleteExam(ctx, bio.ID))
		_, err = s.GetExam(ctx, bio.ID)
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		assert.True(t, errors.Is(s.DeleteExam(ctx, bio.ID), ErrNotFound))

		list, err = s.ListExams(ctx, "carol", "", "")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemoryConcurrentSemesters(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	p, err := s.CreateProgram(ctx, NewProgram{UserID: "alice", Name: "5C"})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.CreateSemester(ctx, p.ID, string(rune('a'+i))); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, grades.MaxSemesters, created)
}

func TestAssembleYearUnknownSemester(t *testing.T) {
	stray := "missing"
	y := assembleYear(&Program{ID: "p", Name: "5C"}, nil,
		[]Course{{ID: "c1", Name: "Math", Credits: 1, SemesterID: &stray}},
		map[string][]Grade{"c1": {{ExamName: "D1", Score: 30, Weight: 1}}})

	require.Len(t, y.Courses, 1)
	assert.Equal(t, "D1", y.Courses[0].Grades[0].ExamName)
}
