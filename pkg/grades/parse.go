package grades

import (
	"fmt"
	"strconv"
	"strings"
)

// WeightMode selects how a weight string is interpreted.
type WeightMode int

const (
	// WeightPercent reads the weight as percentage points, e.g. "30".
	WeightPercent WeightMode = iota
	// WeightFraction reads the weight as a fraction of the whole, e.g. "1/2"
	// or "0.5", and converts it to percentage points.
	WeightFraction
)

// ParseError describes a user-supplied value that could not become a number
// the grade math accepts.
type ParseError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Input, e.Reason)
}

// ParseScore parses a raw score and checks it against scale.
func ParseScore(input string, scale Scale) (float64, error) {
	v, err := parseNumber("score", input)
	if err != nil {
		return 0, err
	}
	if !scale.Contains(v) {
		return 0, &ParseError{
			Field:  "score",
			Input:  input,
			Reason: fmt.Sprintf("must be between %g and %g", scale.Min, scale.Max),
		}
	}
	return v, nil
}

// ParseWeight parses a weight and returns it in percentage points.
// The result is always > 0.
func ParseWeight(input string, mode WeightMode) (float64, error) {
	var (
		v   float64
		err error
	)
	if mode == WeightFraction {
		v, err = parseFraction(input)
		v *= 100
	} else {
		v, err = parseNumber("weight", input)
	}
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, &ParseError{Field: "weight", Input: input, Reason: "must be positive"}
	}
	return v, nil
}

// ParseEntry parses a score/weight pair into an Entry.
func ParseEntry(score, weight string, mode WeightMode, scale Scale) (Entry, error) {
	s, err := ParseScore(score, scale)
	if err != nil {
		return Entry{}, err
	}
	w, err := ParseWeight(weight, mode)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Score: s, Weight: w}, nil
}

func parseFraction(input string) (float64, error) {
	num, denom, ok := strings.Cut(input, "/")
	if !ok {
		return parseNumber("weight", input)
	}
	n, err := parseNumber("weight", num)
	if err != nil {
		return 0, &ParseError{Field: "weight", Input: input, Reason: "numerator is not a number"}
	}
	d, err := parseNumber("weight", denom)
	if err != nil {
		return 0, &ParseError{Field: "weight", Input: input, Reason: "denominator is not a number"}
	}
	if d == 0 {
		return 0, &ParseError{Field: "weight", Input: input, Reason: "denominator is zero"}
	}
	return n / d, nil
}

func parseNumber(field, input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, &ParseError{Field: field, Input: input, Reason: "value is required"}
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, &ParseError{Field: field, Input: input, Reason: "not a number"}
	}
	return v, nil
}
