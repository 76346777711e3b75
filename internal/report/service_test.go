package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/letzgrade/letzgrade/internal/storage"
	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

func seed(t *testing.T, st store.Store, rule grades.YearRule) *store.Program {
	t.Helper()
	ctx := context.Background()

	p, err := st.CreateProgram(ctx, store.NewProgram{
		UserID:    "alice",
		Name:      "5C",
		YearRule:  rule,
		Semesters: []string{"semester1", "semester2"},
		Courses:   []grades.Course{{Name: "Math", Credits: 4}, {Name: "Français", Credits: 2}},
	})
	require.NoError(t, err)

	courses, err := st.ListCourses(ctx, p.ID)
	require.NoError(t, err)
	for _, g := range []store.Grade{
		{CourseID: courses[0].ID, ExamName: "D1", Score: 40, Weight: 30},
		{CourseID: courses[0].ID, ExamName: "D2", Score: 20, Weight: 30},
		{CourseID: courses[1].ID, ExamName: "R1", Score: 45, Weight: 1},
		{CourseID: courses[2].ID, ExamName: "D3", Score: 50, Weight: 1},
	} {
		_, err := st.AddGrade(ctx, g)
		require.NoError(t, err)
	}
	return p
}

func TestBuildUsesProgramRule(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, storage.NewLocal(t.TempDir()), zaptest.NewLogger(t))
	p := seed(t, st, grades.YearRuleSemesterMean)

	got, err := svc.Build(context.Background(), p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, grades.YearRuleSemesterMean, got.Rule)
	v, ok := got.Average.Value()
	require.True(t, ok)
	assert.InDelta(t, 42.5, v, 1e-9)

	override, err := svc.Build(context.Background(), p.ID, grades.YearRuleCreditWeighted)
	require.NoError(t, err)
	v, _ = override.Average.Value()
	assert.InDelta(t, (35.0*6+50.0*4)/10, v, 1e-9)
}

func TestBuildMissingProgram(t *testing.T) {
	svc := NewService(store.NewMemory(), storage.NewLocal(t.TempDir()), nil)

	_, err := svc.Build(context.Background(), "nope", "")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	_, err = svc.Archive(context.Background(), "nope")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func TestArchiveAndLoad(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, storage.NewLocal(t.TempDir()), zaptest.NewLogger(t))
	p := seed(t, st, grades.YearRuleCreditWeighted)

	row, err := svc.Archive(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", row.UserID)
	assert.Equal(t, "5C", row.Year)
	require.NotNil(t, row.Average)
	assert.InDelta(t, 41.0, *row.Average, 1e-9)
	assert.Equal(t, "alice/reports/"+row.ID+".json", row.StorageRef)

	// Later grades do not change an archived report.
	courses, err := st.ListCourses(ctx, p.ID)
	require.NoError(t, err)
	_, err = st.AddGrade(ctx, store.Grade{CourseID: courses[0].ID, ExamName: "D9", Score: 0, Weight: 40})
	require.NoError(t, err)

	gotRow, doc, err := svc.Load(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, row.ID, gotRow.ID)
	assert.Equal(t, row.ID, doc.ID)
	assert.Equal(t, p.ID, doc.ProgramID)
	v, ok := doc.Report.Average.Value()
	require.True(t, ok)
	assert.InDelta(t, 41.0, v, 1e-9)

	list, err := svc.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLoadMissingBlob(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewService(st, storage.NewLocal(t.TempDir()), nil)

	row, err := st.RecordReport(ctx, store.Report{UserID: "alice", ProgramID: "p", Year: "5C"})
	require.NoError(t, err)

	_, _, err = svc.Load(ctx, row.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}
