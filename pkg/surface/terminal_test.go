package surface_test

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/letzgrade/letzgrade/pkg/grades"
	"github.com/letzgrade/letzgrade/pkg/surface"
)

func f(v float64) *float64 { return &v }

func sampleReport() *grades.YearReport {
	report := grades.BuildReport(grades.Year{
		Name: "5C",
		Semesters: []grades.Semester{
			{Name: "semester1", Courses: []grades.Course{
				{Name: "Mathématiques", Credits: 4, Grades: []grades.Grade{{Score: 40, Weight: 30}, {Score: 20, Weight: 30}}},
				{Name: "Éducation physique", Credits: 1},
			}},
			{Name: "semester2"},
		},
	}, grades.YearRuleCreditWeighted)
	return &report
}

func TestTerminalRenderer_Report(t *testing.T) {
	// Set NO_COLOR to avoid ANSI codes in test comparison
	os.Setenv("NO_COLOR", "1")
	defer os.Unsetenv("NO_COLOR")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.RenderReport(&buf, sampleReport()); err != nil {
		t.Fatalf("RenderReport() error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"LetzGrade: 5C, average 30.00 / 60",
		"Year rule: credit_weighted",
		"semester1  30.00 / 60",
		"semester2  N/A",
		"Mathématiques",
		"coeff 4, 2 grades",
		"coeff 1, 0 grades",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestTerminalRenderer_EmptyReport(t *testing.T) {
	os.Setenv("NO_COLOR", "1")
	defer os.Unsetenv("NO_COLOR")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	report := grades.BuildReport(grades.Year{Name: "1GIG"}, "")
	if err := r.RenderReport(&buf, &report); err != nil {
		t.Fatalf("RenderReport() error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "average N/A") {
		t.Error("expected N/A year average")
	}
	if !strings.Contains(output, "No courses") {
		t.Error("expected 'No courses' message")
	}
}

func TestTerminalRenderer_Target(t *testing.T) {
	os.Setenv("NO_COLOR", "1")
	defer os.Unsetenv("NO_COLOR")

	tests := []struct {
		name  string
		query grades.TargetQuery
		want  []string
	}{
		{
			name:  "normal",
			query: grades.TargetQuery{Entries: []grades.Entry{{Score: 40, Weight: 30}, {Score: 20, Weight: 30}}, Target: 30},
			want:  []string{"Target 30 / 60", "Current weighted points: 18.00", "Remaining weight:        40.00%", "Required: 30.00 / 60"},
		},
		{
			name:  "already met",
			query: grades.TargetQuery{Entries: []grades.Entry{{Score: 60, Weight: 60}}, Target: 30},
			want:  []string{"You've already met or exceeded the target."},
		},
		{
			name:  "over cap",
			query: grades.TargetQuery{Entries: []grades.Entry{{Score: 10, Weight: 90}}, Target: 30},
			want:  []string{"Impossible: you'd need 210.00 which exceeds 60."},
		},
		{
			name:  "no weight left",
			query: grades.TargetQuery{Entries: []grades.Entry{{Score: 10, Weight: 100}}, Target: 30},
			want:  []string{"No weight left to improve the grade."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := &surface.TerminalRenderer{}
			if err := r.RenderTarget(&buf, tc.query, grades.RequiredForTarget(tc.query)); err != nil {
				t.Fatalf("RenderTarget() error: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected %q in output:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestTerminalRenderer_ColorRespected(t *testing.T) {
	// Without NO_COLOR, output should have ANSI codes
	os.Unsetenv("NO_COLOR")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.RenderReport(&buf, sampleReport()); err != nil {
		t.Fatalf("RenderReport() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI escape codes when NO_COLOR is not set")
	}
}

func TestFormatAverage(t *testing.T) {
	tests := []struct {
		result grades.Result
		want   string
	}{
		{grades.Result{}, "N/A"},
		{grades.Result{Average: f(0), TotalWeight: 1}, "0.00"},
		{grades.Result{Average: f(32.5), TotalWeight: 1}, "32.50"},
		{grades.Result{Average: f(31.0 / 3.0), TotalWeight: 3}, "10.33"},
	}
	for _, tc := range tests {
		if got := surface.FormatAverage(tc.result); got != tc.want {
			t.Errorf("FormatAverage(%v) = %q, want %q", tc.result.Average, got, tc.want)
		}
	}
	if got := surface.FormatScaled(grades.Result{Average: f(45), TotalWeight: 1}, grades.Scale{Min: 0, Max: 60}); got != "45.00 / 60" {
		t.Errorf("FormatScaled = %q", got)
	}
}

func TestJSONRenderer_Target(t *testing.T) {
	q := grades.TargetQuery{Entries: []grades.Entry{{Score: 10, Weight: 100}}, Target: 30}
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).RenderTarget(&buf, q, grades.RequiredForTarget(q)); err != nil {
		t.Fatalf("RenderTarget() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got["required"] != nil {
		t.Errorf("required = %v, want null", got["required"])
	}
	if got["unreachable"] != true {
		t.Errorf("unreachable = %v, want true", got["unreachable"])
	}
	if got["reason"] != "no_weight_left" {
		t.Errorf("reason = %v", got["reason"])
	}
	if got["target"] != 30.0 {
		t.Errorf("target = %v, want 30", got["target"])
	}
	if got["message"] != "No weight left to improve the grade." {
		t.Errorf("message = %v", got["message"])
	}
}

func TestJSONRenderer_Report(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).RenderReport(&buf, sampleReport()); err != nil {
		t.Fatalf("RenderReport() error: %v", err)
	}

	var back grades.YearReport
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v, ok := back.Semesters[0].Average.Value(); !ok || math.Abs(v-30) > 1e-9 {
		t.Errorf("semester1 average = %v, want 30", back.Semesters[0].Average.Average)
	}
	if back.Semesters[1].Average.Average != nil {
		t.Error("semester2 average should be null")
	}
}

func TestNew(t *testing.T) {
	if _, err := surface.New("text"); err != nil {
		t.Errorf("New(text): %v", err)
	}
	if r, err := surface.New("json"); err != nil {
		t.Errorf("New(json): %v", err)
	} else if _, ok := r.(*surface.JSONRenderer); !ok {
		t.Errorf("New(json) = %T", r)
	}
	if _, err := surface.New("xml"); err == nil {
		t.Error("New(xml) should fail")
	}
}
