package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// Postgres is the Store backed by a Postgres database.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres store. The schema is managed by
// platform.AutoMigrate.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// wrap adds context to err and maps driver errors onto the package sentinels.
func wrap(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			err = ErrDuplicate
		case "22P02": // invalid_text_representation, e.g. an id that is not a UUID
			err = ErrNotFound
		}
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateProgram creates the program, its semesters and seed courses in one
// transaction.
func (s *Postgres) CreateProgram(ctx context.Context, np NewProgram) (*Program, error) {
	if len(np.Semesters) > grades.MaxSemesters {
		return nil, fmt.Errorf("create program %s: %w", np.Name, ErrTooManySemesters)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	p := &Program{}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO programs (id, user_id, name, year_rule)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, name, year_rule, created_at`,
		uuid.NewString(), np.UserID, np.Name, string(np.YearRule.OrDefault()),
	).Scan(&p.ID, &p.UserID, &p.Name, &p.YearRule, &p.CreatedAt)
	if err != nil {
		return nil, wrap(err, "create program %s", np.Name)
	}

	targets := []*string{nil}
	if len(np.Semesters) > 0 {
		targets = targets[:0]
	}
	for i, name := range np.Semesters {
		sem, err := insertSemester(ctx, tx, p.ID, name, i+1)
		if err != nil {
			return nil, err
		}
		targets = append(targets, &sem.ID)
	}
	for _, semID := range targets {
		for _, c := range np.Courses {
			if _, err := insertCourse(ctx, tx, Course{
				ProgramID:  p.ID,
				SemesterID: semID,
				Code:       c.Code,
				Name:       c.Name,
				Credits:    c.Credits,
			}); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit program %s: %w", np.Name, err)
	}
	return p, nil
}

// GetProgram returns the program with the given id.
func (s *Postgres) GetProgram(ctx context.Context, programID string) (*Program, error) {
	return getProgram(ctx, s.db, programID, false)
}

func getProgram(ctx context.Context, q queryer, programID string, forUpdate bool) (*Program, error) {
	query := `SELECT id, user_id, name, year_rule, created_at FROM programs WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	p := &Program{}
	err := q.QueryRowContext(ctx, query, programID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.YearRule, &p.CreatedAt)
	if err != nil {
		return nil, wrap(err, "get program %s", programID)
	}
	return p, nil
}

// ListPrograms returns the user's programs ordered by name.
func (s *Postgres) ListPrograms(ctx context.Context, userID string) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, year_rule, created_at
		 FROM programs WHERE user_id = $1 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.YearRule, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// DeleteProgram removes the program. Semesters, courses and grades go with it
// (ON DELETE CASCADE); archived reports are kept.
func (s *Postgres) DeleteProgram(ctx context.Context, programID string) error {
	return execOne(ctx, s.db, `DELETE FROM programs WHERE id = $1`, "delete program "+programID, programID)
}

// CreateSemester locks the program row so concurrent creations cannot exceed
// grades.MaxSemesters.
func (s *Postgres) CreateSemester(ctx context.Context, programID, name string) (*Semester, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := getProgram(ctx, tx, programID, true); err != nil {
		return nil, err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM semesters WHERE program_id = $1`, programID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("count semesters: %w", err)
	}
	if count >= grades.MaxSemesters {
		return nil, fmt.Errorf("create semester %s: %w", name, ErrTooManySemesters)
	}

	sem, err := insertSemester(ctx, tx, programID, name, count+1)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit semester %s: %w", name, err)
	}
	return sem, nil
}

func insertSemester(ctx context.Context, q queryer, programID, name string, position int) (*Semester, error) {
	sem := &Semester{}
	err := q.QueryRowContext(ctx,
		`INSERT INTO semesters (id, program_id, name, position)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, program_id, name, position, created_at`,
		uuid.NewString(), programID, name, position,
	).Scan(&sem.ID, &sem.ProgramID, &sem.Name, &sem.Position, &sem.CreatedAt)
	if err != nil {
		return nil, wrap(err, "create semester %s", name)
	}
	return sem, nil
}

// ListSemesters returns the semesters of a program by position.
func (s *Postgres) ListSemesters(ctx context.Context, programID string) ([]Semester, error) {
	return listSemesters(ctx, s.db, programID)
}

func listSemesters(ctx context.Context, q queryer, programID string) ([]Semester, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, program_id, name, position, created_at
		 FROM semesters WHERE program_id = $1 ORDER BY position`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	defer rows.Close()

	var semesters []Semester
	for rows.Next() {
		var sem Semester
		if err := rows.Scan(&sem.ID, &sem.ProgramID, &sem.Name, &sem.Position, &sem.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan semester: %w", err)
		}
		semesters = append(semesters, sem)
	}
	return semesters, rows.Err()
}

// CreateCourse adds a course, checking that its semester belongs to the
// same program.
func (s *Postgres) CreateCourse(ctx context.Context, c Course) (*Course, error) {
	if c.SemesterID != nil {
		var programID string
		err := s.db.QueryRowContext(ctx,
			`SELECT program_id FROM semesters WHERE id = $1`, *c.SemesterID,
		).Scan(&programID)
		if err != nil {
			return nil, wrap(err, "create course: semester %s", *c.SemesterID)
		}
		if programID != c.ProgramID {
			return nil, fmt.Errorf("create course: semester %s: %w", *c.SemesterID, ErrNotFound)
		}
	}
	return insertCourse(ctx, s.db, c)
}

const courseColumns = `id, program_id, semester_id, code, name, credits, created_at`

func scanCourse(row interface{ Scan(...any) error }, c *Course) error {
	var semesterID sql.NullString
	if err := row.Scan(&c.ID, &c.ProgramID, &semesterID, &c.Code, &c.Name, &c.Credits, &c.CreatedAt); err != nil {
		return err
	}
	c.SemesterID = nil
	if semesterID.Valid {
		c.SemesterID = &semesterID.String
	}
	return nil
}

func insertCourse(ctx context.Context, q queryer, c Course) (*Course, error) {
	out := &Course{}
	err := scanCourse(q.QueryRowContext(ctx,
		`INSERT INTO courses (id, program_id, semester_id, code, name, credits)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+courseColumns,
		uuid.NewString(), c.ProgramID, c.SemesterID, c.Code, c.Name, c.Credits,
	), out)
	if err != nil {
		// A missing program surfaces as a foreign key violation.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, fmt.Errorf("create course %s: program %s: %w", c.Name, c.ProgramID, ErrNotFound)
		}
		return nil, wrap(err, "create course %s", c.Name)
	}
	return out, nil
}

// GetCourse returns the course with the given id.
func (s *Postgres) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	c := &Course{}
	err := scanCourse(s.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, courseID,
	), c)
	if err != nil {
		return nil, wrap(err, "get course %s", courseID)
	}
	return c, nil
}

// ListCourses returns the courses of a program in creation order.
func (s *Postgres) ListCourses(ctx context.Context, programID string) ([]Course, error) {
	return listCourses(ctx, s.db, programID)
}

func listCourses(ctx context.Context, q queryer, programID string) ([]Course, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE program_id = $1 ORDER BY seq`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// UpdateCourseCredits sets the credits of a course.
func (s *Postgres) UpdateCourseCredits(ctx context.Context, courseID string, credits float64) error {
	return execOne(ctx, s.db,
		`UPDATE courses SET credits = $2 WHERE id = $1`,
		"update course "+courseID, courseID, credits)
}

// DeleteCourse removes a course; its grades cascade.
func (s *Postgres) DeleteCourse(ctx context.Context, courseID string) error {
	return execOne(ctx, s.db, `DELETE FROM courses WHERE id = $1`, "delete course "+courseID, courseID)
}

const gradeColumns = `id, course_id, exam_name, score, weight, description, created_at, updated_at`

func scanGrade(row interface{ Scan(...any) error }, g *Grade) error {
	return row.Scan(&g.ID, &g.CourseID, &g.ExamName, &g.Score, &g.Weight, &g.Description, &g.CreatedAt, &g.UpdatedAt)
}

// AddGrade records a grade for a course.
func (s *Postgres) AddGrade(ctx context.Context, g Grade) (*Grade, error) {
	out := &Grade{}
	err := scanGrade(s.db.QueryRowContext(ctx,
		`INSERT INTO grades (id, course_id, exam_name, score, weight, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+gradeColumns,
		uuid.NewString(), g.CourseID, g.ExamName, g.Score, g.Weight, g.Description,
	), out)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, fmt.Errorf("add grade: course %s: %w", g.CourseID, ErrNotFound)
		}
		return nil, wrap(err, "add grade %s", g.ExamName)
	}
	return out, nil
}

// GetGrade returns the grade with the given id.
func (s *Postgres) GetGrade(ctx context.Context, gradeID string) (*Grade, error) {
	g := &Grade{}
	err := scanGrade(s.db.QueryRowContext(ctx,
		`SELECT `+gradeColumns+` FROM grades WHERE id = $1`, gradeID,
	), g)
	if err != nil {
		return nil, wrap(err, "get grade %s", gradeID)
	}
	return g, nil
}

// UpdateGrade replaces the exam name, score, weight and description.
func (s *Postgres) UpdateGrade(ctx context.Context, g Grade) (*Grade, error) {
	out := &Grade{}
	err := scanGrade(s.db.QueryRowContext(ctx,
		`UPDATE grades
		 SET exam_name = $2, score = $3, weight = $4, description = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+gradeColumns,
		g.ID, g.ExamName, g.Score, g.Weight, g.Description,
	), out)
	if err != nil {
		return nil, wrap(err, "update grade %s", g.ID)
	}
	return out, nil
}

// DeleteGrade removes a grade.
func (s *Postgres) DeleteGrade(ctx context.Context, gradeID string) error {
	return execOne(ctx, s.db, `DELETE FROM grades WHERE id = $1`, "delete grade "+gradeID, gradeID)
}

// ListGrades returns the grades of a course in creation order.
func (s *Postgres) ListGrades(ctx context.Context, courseID string) ([]Grade, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return listGrades(ctx, s.db, courseID)
}

func listGrades(ctx context.Context, q queryer, courseID string) ([]Grade, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+gradeColumns+` FROM grades WHERE course_id = $1 ORDER BY seq`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	defer rows.Close()

	var out []Grade
	for rows.Next() {
		var g Grade
		if err := scanGrade(rows, &g); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// LoadYear reads the program, its semesters, courses and grades in one
// read-only REPEATABLE READ transaction, so a concurrent grade edit is either
// fully in the snapshot or not at all.
func (s *Postgres) LoadYear(ctx context.Context, programID string) (*grades.Year, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := getProgram(ctx, tx, programID, false)
	if err != nil {
		return nil, err
	}
	semesters, err := listSemesters(ctx, tx, programID)
	if err != nil {
		return nil, err
	}
	courses, err := listCourses(ctx, tx, programID)
	if err != nil {
		return nil, err
	}
	byCourse, err := listProgramGrades(ctx, tx, programID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit load year %s: %w", programID, err)
	}
	return assembleYear(p, semesters, courses, byCourse), nil
}

// listProgramGrades returns every grade of the program keyed by course id.
// A transaction runs one statement at a time, so this is a single join
// rather than a query per course.
func listProgramGrades(ctx context.Context, q queryer, programID string) (map[string][]Grade, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT g.id, g.course_id, g.exam_name, g.score, g.weight, g.description, g.created_at, g.updated_at
		 FROM grades g JOIN courses c ON c.id = g.course_id
		 WHERE c.program_id = $1
		 ORDER BY g.seq`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grades of program %s: %w", programID, err)
	}
	defer rows.Close()

	out := map[string][]Grade{}
	for rows.Next() {
		var g Grade
		if err := scanGrade(rows, &g); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		out[g.CourseID] = append(out[g.CourseID], g)
	}
	return out, rows.Err()
}

const reportColumns = `id, user_id, program_id, year, rule, average, storage_ref, created_at`

func scanReport(row interface{ Scan(...any) error }, r *Report) error {
	var avg sql.NullFloat64
	if err := row.Scan(&r.ID, &r.UserID, &r.ProgramID, &r.Year, &r.Rule, &avg, &r.StorageRef, &r.CreatedAt); err != nil {
		return err
	}
	r.Average = nil
	if avg.Valid {
		r.Average = &avg.Float64
	}
	return nil
}

// RecordReport indexes an archived report, assigning an id when r has none.
func (s *Postgres) RecordReport(ctx context.Context, r Report) (*Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	out := &Report{}
	err := scanReport(s.db.QueryRowContext(ctx,
		`INSERT INTO reports (id, user_id, program_id, year, rule, average, storage_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+reportColumns,
		r.ID, r.UserID, r.ProgramID, r.Year, string(r.Rule), r.Average, r.StorageRef,
	), out)
	if err != nil {
		return nil, wrap(err, "record report %s", r.ID)
	}
	return out, nil
}

// GetReport returns the report index row with the given id.
func (s *Postgres) GetReport(ctx context.Context, reportID string) (*Report, error) {
	r := &Report{}
	err := scanReport(s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, reportID,
	), r)
	if err != nil {
		return nil, wrap(err, "get report %s", reportID)
	}
	return r, nil
}

// ListReports returns the program's reports, newest first.
func (s *Postgres) ListReports(ctx context.Context, programID string) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE program_id = $1 ORDER BY seq DESC`,
		programID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		if err := scanReport(rows, &r); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

const examColumns = `id, user_id, name, description, to_char(date, 'YYYY-MM-DD'), created_at`

func scanExam(row interface{ Scan(...any) error }, e *Exam) error {
	return row.Scan(&e.ID, &e.UserID, &e.Name, &e.Description, &e.Date, &e.CreatedAt)
}

// CreateExam adds an exam to the user's calendar.
func (s *Postgres) CreateExam(ctx context.Context, e Exam) (*Exam, error) {
	out := &Exam{}
	err := scanExam(s.db.QueryRowContext(ctx,
		`INSERT INTO exams (id, user_id, name, description, date)
		 VALUES ($1, $2, $3, $4, $5::date)
		 RETURNING `+examColumns,
		uuid.NewString(), e.UserID, e.Name, e.Description, e.Date,
	), out)
	if err != nil {
		return nil, wrap(err, "create exam %s", e.Name)
	}
	return out, nil
}

// GetExam returns the exam with the given id.
func (s *Postgres) GetExam(ctx context.Context, examID string) (*Exam, error) {
	e := &Exam{}
	err := scanExam(s.db.QueryRowContext(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, examID,
	), e)
	if err != nil {
		return nil, wrap(err, "get exam %s", examID)
	}
	return e, nil
}

// ListExams returns the user's exams within [from, to] by date, then
// creation order.
func (s *Postgres) ListExams(ctx context.Context, userID, from, to string) ([]Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE user_id = $1`
	args := []any{userID}
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(` AND date >= $%d::date`, len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(` AND date <= $%d::date`, len(args))
	}
	query += ` ORDER BY date, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, "list exams")
	}
	defer rows.Close()

	var exams []Exam
	for rows.Next() {
		var e Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// DeleteExam removes an exam.
func (s *Postgres) DeleteExam(ctx context.Context, examID string) error {
	return execOne(ctx, s.db, `DELETE FROM exams WHERE id = $1`, "delete exam "+examID, examID)
}

func execOne(ctx context.Context, q queryer, query, what string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(err, "%s", what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
