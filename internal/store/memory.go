package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// Memory is an in-process Store for development and tests.
// It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	seq       int64
	order     map[string]int64
	programs  map[string]Program
	semesters map[string]Semester
	courses   map[string]Course
	grades    map[string]Grade
	reports   map[string]Report
	exams     map[string]Exam
	now       func() time.Time
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		order:     map[string]int64{},
		programs:  map[string]Program{},
		semesters: map[string]Semester{},
		courses:   map[string]Course{},
		grades:    map[string]Grade{},
		reports:   map[string]Report{},
		exams:     map[string]Exam{},
		now:       time.Now,
	}
}

// newID must be called with mu held for writing.
func (m *Memory) newID() string {
	id := uuid.NewString()
	m.seq++
	m.order[id] = m.seq
	return id
}

// CreateProgram creates the program with its semesters and seed courses.
func (m *Memory) CreateProgram(ctx context.Context, p NewProgram) (*Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(p.Semesters) > grades.MaxSemesters {
		return nil, fmt.Errorf("create program %s: %w", p.Name, ErrTooManySemesters)
	}
	for _, existing := range m.programs {
		if existing.UserID == p.UserID && existing.Name == p.Name {
			return nil, fmt.Errorf("create program %s: %w", p.Name, ErrDuplicate)
		}
	}
	seen := map[string]bool{}
	for _, name := range p.Semesters {
		if seen[name] {
			return nil, fmt.Errorf("create semester %s: %w", name, ErrDuplicate)
		}
		seen[name] = true
	}

	now := m.now()
	prog := Program{
		ID:        m.newID(),
		UserID:    p.UserID,
		Name:      p.Name,
		YearRule:  p.YearRule.OrDefault(),
		CreatedAt: now,
	}
	m.programs[prog.ID] = prog

	// "" places the seed courses directly in the program.
	targets := []string{""}
	if len(p.Semesters) > 0 {
		targets = targets[:0]
	}
	for i, name := range p.Semesters {
		s := Semester{ID: m.newID(), ProgramID: prog.ID, Name: name, Position: i + 1, CreatedAt: now}
		m.semesters[s.ID] = s
		targets = append(targets, s.ID)
	}
	for _, semID := range targets {
		for _, c := range p.Courses {
			course := Course{
				ID:        m.newID(),
				ProgramID: prog.ID,
				Code:      c.Code,
				Name:      c.Name,
				Credits:   c.Credits,
				CreatedAt: now,
			}
			if semID != "" {
				id := semID
				course.SemesterID = &id
			}
			m.courses[course.ID] = course
		}
	}

	return &prog, nil
}

// GetProgram returns the program with the given id.
func (m *Memory) GetProgram(ctx context.Context, programID string) (*Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.programs[programID]
	if !ok {
		return nil, fmt.Errorf("get program %s: %w", programID, ErrNotFound)
	}
	return &p, nil
}

// ListPrograms returns the user's programs ordered by name.
func (m *Memory) ListPrograms(ctx context.Context, userID string) ([]Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Program
	for _, p := range m.programs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteProgram removes the program with its semesters, courses and grades.
// Archived reports are kept.
func (m *Memory) DeleteProgram(ctx context.Context, programID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.programs[programID]; !ok {
		return fmt.Errorf("delete program %s: %w", programID, ErrNotFound)
	}
	delete(m.programs, programID)
	for id, s := range m.semesters {
		if s.ProgramID == programID {
			delete(m.semesters, id)
		}
	}
	for id, c := range m.courses {
		if c.ProgramID == programID {
			m.deleteCourseLocked(id)
		}
	}
	return nil
}

// CreateSemester appends a semester, refusing more than grades.MaxSemesters.
func (m *Memory) CreateSemester(ctx context.Context, programID, name string) (*Semester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.programs[programID]; !ok {
		return nil, fmt.Errorf("create semester: program %s: %w", programID, ErrNotFound)
	}
	count := 0
	for _, s := range m.semesters {
		if s.ProgramID != programID {
			continue
		}
		if s.Name == name {
			return nil, fmt.Errorf("create semester %s: %w", name, ErrDuplicate)
		}
		count++
	}
	if count >= grades.MaxSemesters {
		return nil, fmt.Errorf("create semester %s: %w", name, ErrTooManySemesters)
	}

	s := Semester{ID: m.newID(), ProgramID: programID, Name: name, Position: count + 1, CreatedAt: m.now()}
	m.semesters[s.ID] = s
	return &s, nil
}

// ListSemesters returns the semesters of a program by position.
func (m *Memory) ListSemesters(ctx context.Context, programID string) ([]Semester, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSemestersLocked(programID), nil
}

func (m *Memory) listSemestersLocked(programID string) []Semester {
	var out []Semester
	for _, s := range m.semesters {
		if s.ProgramID == programID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// CreateCourse adds a course to a program or one of its semesters.
func (m *Memory) CreateCourse(ctx context.Context, c Course) (*Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.programs[c.ProgramID]; !ok {
		return nil, fmt.Errorf("create course: program %s: %w", c.ProgramID, ErrNotFound)
	}
	if c.SemesterID != nil {
		s, ok := m.semesters[*c.SemesterID]
		if !ok || s.ProgramID != c.ProgramID {
			return nil, fmt.Errorf("create course: semester %s: %w", *c.SemesterID, ErrNotFound)
		}
	}

	c.ID = m.newID()
	c.CreatedAt = m.now()
	m.courses[c.ID] = c
	return &c, nil
}

// GetCourse returns the course with the given id.
func (m *Memory) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.courses[courseID]
	if !ok {
		return nil, fmt.Errorf("get course %s: %w", courseID, ErrNotFound)
	}
	return &c, nil
}

// ListCourses returns the courses of a program in creation order.
func (m *Memory) ListCourses(ctx context.Context, programID string) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCoursesLocked(programID), nil
}

func (m *Memory) listCoursesLocked(programID string) []Course {
	var out []Course
	for _, c := range m.courses {
		if c.ProgramID == programID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out
}

// UpdateCourseCredits sets the credits of a course.
func (m *Memory) UpdateCourseCredits(ctx context.Context, courseID string, credits float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[courseID]
	if !ok {
		return fmt.Errorf("update course %s: %w", courseID, ErrNotFound)
	}
	c.Credits = credits
	m.courses[courseID] = c
	return nil
}

// DeleteCourse removes a course and its grades.
func (m *Memory) DeleteCourse(ctx context.Context, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[courseID]; !ok {
		return fmt.Errorf("delete course %s: %w", courseID, ErrNotFound)
	}
	m.deleteCourseLocked(courseID)
	return nil
}

func (m *Memory) deleteCourseLocked(courseID string) {
	delete(m.courses, courseID)
	for id, g := range m.grades {
		if g.CourseID == courseID {
			delete(m.grades, id)
		}
	}
}

// AddGrade records a grade for a course.
func (m *Memory) AddGrade(ctx context.Context, g Grade) (*Grade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[g.CourseID]; !ok {
		return nil, fmt.Errorf("add grade: course %s: %w", g.CourseID, ErrNotFound)
	}
	now := m.now()
	g.ID = m.newID()
	g.CreatedAt = now
	g.UpdatedAt = now
	m.grades[g.ID] = g
	return &g, nil
}

// GetGrade returns the grade with the given id.
func (m *Memory) GetGrade(ctx context.Context, gradeID string) (*Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grades[gradeID]
	if !ok {
		return nil, fmt.Errorf("get grade %s: %w", gradeID, ErrNotFound)
	}
	return &g, nil
}

// UpdateGrade replaces the exam name, score, weight and description.
func (m *Memory) UpdateGrade(ctx context.Context, g Grade) (*Grade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.grades[g.ID]
	if !ok {
		return nil, fmt.Errorf("update grade %s: %w", g.ID, ErrNotFound)
	}
	existing.ExamName = g.ExamName
	existing.Score = g.Score
	existing.Weight = g.Weight
	existing.Description = g.Description
	existing.UpdatedAt = m.now()
	m.grades[g.ID] = existing
	return &existing, nil
}

// DeleteGrade removes a grade.
func (m *Memory) DeleteGrade(ctx context.Context, gradeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.grades[gradeID]; !ok {
		return fmt.Errorf("delete grade %s: %w", gradeID, ErrNotFound)
	}
	delete(m.grades, gradeID)
	return nil
}

// ListGrades returns the grades of a course in creation order.
func (m *Memory) ListGrades(ctx context.Context, courseID string) ([]Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.courses[courseID]; !ok {
		return nil, fmt.Errorf("list grades: course %s: %w", courseID, ErrNotFound)
	}
	return m.listGradesLocked(courseID), nil
}

func (m *Memory) listGradesLocked(courseID string) []Grade {
	var out []Grade
	for _, g := range m.grades {
		if g.CourseID == courseID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out
}

// LoadYear assembles the program hierarchy under one read lock.
func (m *Memory) LoadYear(ctx context.Context, programID string) (*grades.Year, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.programs[programID]
	if !ok {
		return nil, fmt.Errorf("load year %s: %w", programID, ErrNotFound)
	}
	courses := m.listCoursesLocked(programID)
	byCourse := make(map[string][]Grade, len(courses))
	for _, c := range courses {
		byCourse[c.ID] = m.listGradesLocked(c.ID)
	}
	return assembleYear(&p, m.listSemestersLocked(programID), courses, byCourse), nil
}

// RecordReport indexes an archived report, assigning an id when r has none.
func (m *Memory) RecordReport(ctx context.Context, r Report) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = m.newID()
	} else {
		m.seq++
		m.order[r.ID] = m.seq
	}
	r.CreatedAt = m.now()
	m.reports[r.ID] = r
	return &r, nil
}

// GetReport returns the report index row with the given id.
func (m *Memory) GetReport(ctx context.Context, reportID string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("get report %s: %w", reportID, ErrNotFound)
	}
	return &r, nil
}

// ListReports returns the program's reports, newest first.
func (m *Memory) ListReports(ctx context.Context, programID string) ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Report
	for _, r := range m.reports {
		if r.ProgramID == programID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] > m.order[out[j].ID] })
	return out, nil
}

// CreateExam adds an exam to the user's calendar.
func (m *Memory) CreateExam(ctx context.Context, e Exam) (*Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.newID()
	e.CreatedAt = m.now()
	m.exams[e.ID] = e
	return &e, nil
}

// GetExam returns the exam with the given id.
func (m *Memory) GetExam(ctx context.Context, examID string) (*Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.exams[examID]
	if !ok {
		return nil, fmt.Errorf("get exam %s: %w", examID, ErrNotFound)
	}
	return &e, nil
}

// ListExams returns the user's exams within [from, to] by date, then
// creation order. YYYY-MM-DD dates compare correctly as strings.
func (m *Memory) ListExams(ctx context.Context, userID, from, to string) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Exam
	for _, e := range m.exams {
		if e.UserID != userID {
			continue
		}
		if (from != "" && e.Date < from) || (to != "" && e.Date > to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return m.order[out[i].ID] < m.order[out[j].ID]
	})
	return out, nil
}

// DeleteExam removes an exam.
func (m *Memory) DeleteExam(ctx context.Context, examID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.exams[examID]; !ok {
		return fmt.Errorf("delete exam %s: %w", examID, ErrNotFound)
	}
	delete(m.exams, examID)
	return nil
}
