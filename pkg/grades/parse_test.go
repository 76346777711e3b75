package grades_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr string
	}{
		{input: "40", want: 40},
		{input: " 12.5 ", want: 12.5},
		{input: "12,5", want: 12.5},
		{input: "0", want: 0},
		{input: "60", want: 60},
		{input: "", wantErr: "value is required"},
		{input: "abc", wantErr: "not a number"},
		{input: "NaN", wantErr: "not a number"},
		{input: "Inf", wantErr: "not a number"},
		{input: "61", wantErr: "must be between 0 and 60"},
		{input: "-1", wantErr: "must be between 0 and 60"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := grades.ParseScore(tc.input, grades.DefaultScale)
			if tc.wantErr != "" {
				var pe *grades.ParseError
				require.True(t, errors.As(err, &pe), "want *ParseError, got %v", err)
				assert.Equal(t, "score", pe.Field)
				assert.Equal(t, tc.wantErr, pe.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		mode    grades.WeightMode
		want    float64
		wantErr string
	}{
		{name: "percent", input: "30", mode: grades.WeightPercent, want: 30},
		{name: "percent decimal comma", input: "12,5", mode: grades.WeightPercent, want: 12.5},
		{name: "percent zero", input: "0", mode: grades.WeightPercent, wantErr: "must be positive"},
		{name: "percent negative", input: "-10", mode: grades.WeightPercent, wantErr: "must be positive"},
		{name: "percent empty", input: "", mode: grades.WeightPercent, wantErr: "value is required"},
		{name: "fraction", input: "1/2", mode: grades.WeightFraction, want: 50},
		{name: "fraction spaces", input: " 1 / 4 ", mode: grades.WeightFraction, want: 25},
		{name: "fraction decimal", input: "0.3", mode: grades.WeightFraction, want: 30},
		{name: "fraction zero denominator", input: "1/0", mode: grades.WeightFraction, wantErr: "denominator is zero"},
		{name: "fraction bad numerator", input: "x/2", mode: grades.WeightFraction, wantErr: "numerator is not a number"},
		{name: "fraction bad denominator", input: "1/y", mode: grades.WeightFraction, wantErr: "denominator is not a number"},
		{name: "fraction zero", input: "0/3", mode: grades.WeightFraction, wantErr: "must be positive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := grades.ParseWeight(tc.input, tc.mode)
			if tc.wantErr != "" {
				var pe *grades.ParseError
				require.True(t, errors.As(err, &pe), "want *ParseError, got %v", err)
				assert.Equal(t, "weight", pe.Field)
				assert.Equal(t, tc.wantErr, pe.Reason)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestParseEntry(t *testing.T) {
	e, err := grades.ParseEntry("40", "1/3", grades.WeightFraction, grades.DefaultScale)
	require.NoError(t, err)
	assert.Equal(t, 40.0, e.Score)
	assert.InDelta(t, 33.333333, e.Weight, 1e-5)

	_, err = grades.ParseEntry("75", "30", grades.WeightPercent, grades.DefaultScale)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid score "75"`)

	_, err = grades.ParseEntry("30", "", grades.WeightPercent, grades.DefaultScale)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid weight")
}
