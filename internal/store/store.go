// Package store persists study programs, their semesters, courses and grades,
// and the index of archived reports. The grade math never touches the store:
// LoadYear hands it a complete snapshot to compute on.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

var (
	// ErrNotFound is returned when a program, semester, course, grade,
	// report or exam does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTooManySemesters is returned when a program already holds
	// grades.MaxSemesters semesters.
	ErrTooManySemesters = errors.New("program already has the maximum number of semesters")
	// ErrDuplicate is returned when a user already has a program with the
	// same name, or a program already has a semester with the same name.
	ErrDuplicate = errors.New("already exists")
)

// Program is one school year of one user, e.g. "5C".
type Program struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	YearRule  grades.YearRule `json:"year_rule"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewProgram describes a program to create. When Semesters is non-empty the
// seed Courses are created in every semester, otherwise directly in the
// program.
type NewProgram struct {
	UserID    string
	Name      string
	YearRule  grades.YearRule
	Semesters []string
	Courses   []grades.Course
}

// Semester belongs to a program. Position orders the semesters of a program.
type Semester struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"program_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Course belongs to a program and, optionally, one of its semesters.
type Course struct {
	ID         string    `json:"id"`
	ProgramID  string    `json:"program_id"`
	SemesterID *string   `json:"semester_id,omitempty"`
	Code       string    `json:"code,omitempty"`
	Name       string    `json:"name"`
	Credits    float64   `json:"credits"`
	CreatedAt  time.Time `json:"created_at"`
}

// Grade is a persisted exam grade.
type Grade struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	ExamName    string    `json:"exam_name"`
	Score       float64   `json:"score"`
	Weight      float64   `json:"weight"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Grade converts the row into the value the grade math works on.
func (g Grade) Grade() grades.Grade {
	return grades.Grade{
		ID:          g.ID,
		ExamName:    g.ExamName,
		Score:       g.Score,
		Weight:      g.Weight,
		Description: g.Description,
	}
}

// Report indexes an archived report blob.
type Report struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	ProgramID  string          `json:"program_id"`
	Year       string          `json:"year"`
	Rule       grades.YearRule `json:"rule"`
	Average    *float64        `json:"average"`
	StorageRef string          `json:"storage_ref"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Exam is an upcoming exam on a user's calendar. Date is a calendar day in
// YYYY-MM-DD form.
type Exam struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence collaborator of the service.
type Store interface {
	CreateProgram(ctx context.Context, p NewProgram) (*Program, error)
	GetProgram(ctx context.Context, programID string) (*Program, error)
	ListPrograms(ctx context.Context, userID string) ([]Program, error)
	DeleteProgram(ctx context.Context, programID string) error

	CreateSemester(ctx context.Context, programID, name string) (*Semester, error)
	ListSemesters(ctx context.Context, programID string) ([]Semester, error)

	CreateCourse(ctx context.Context, c Course) (*Course, error)
	GetCourse(ctx context.Context, courseID string) (*Course, error)
	ListCourses(ctx context.Context, programID string) ([]Course, error)
	UpdateCourseCredits(ctx context.Context, courseID string, credits float64) error
	DeleteCourse(ctx context.Context, courseID string) error

	AddGrade(ctx context.Context, g Grade) (*Grade, error)
	GetGrade(ctx context.Context, gradeID string) (*Grade, error)
	UpdateGrade(ctx context.Context, g Grade) (*Grade, error)
	DeleteGrade(ctx context.Context, gradeID string) error
	ListGrades(ctx context.Context, courseID string) ([]Grade, error)

	// LoadYear assembles the full hierarchy of a program.
	LoadYear(ctx context.Context, programID string) (*grades.Year, error)

	RecordReport(ctx context.Context, r Report) (*Report, error)
	GetReport(ctx context.Context, reportID string) (*Report, error)
	ListReports(ctx context.Context, programID string) ([]Report, error)

	CreateExam(ctx context.Context, e Exam) (*Exam, error)
	GetExam(ctx context.Context, examID string) (*Exam, error)
	// ListExams returns the user's exams dated within [from, to] (YYYY-MM-DD),
	// ordered by date. An empty bound leaves that side open.
	ListExams(ctx context.Context, userID, from, to string) ([]Exam, error)
	DeleteExam(ctx context.Context, examID string) error
}

// assembleYear builds the grade hierarchy from flat rows. Courses keep the
// order they are given in.
func assembleYear(p *Program, semesters []Semester, courses []Course, gradesByCourse map[string][]Grade) *grades.Year {
	y := &grades.Year{ID: p.ID, Name: p.Name}

	index := make(map[string]int, len(semesters))
	for i, s := range semesters {
		index[s.ID] = i
		y.Semesters = append(y.Semesters, grades.Semester{ID: s.ID, Name: s.Name})
	}

	for _, c := range courses {
		gc := grades.Course{ID: c.ID, Code: c.Code, Name: c.Name, Credits: c.Credits}
		for _, g := range gradesByCourse[c.ID] {
			gc.Grades = append(gc.Grades, g.Grade())
		}
		if c.SemesterID != nil {
			if i, ok := index[*c.SemesterID]; ok {
				y.Semesters[i].Courses = append(y.Semesters[i].Courses, gc)
				continue
			}
		}
		y.Courses = append(y.Courses, gc)
	}
	return y
}
