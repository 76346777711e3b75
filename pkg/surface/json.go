package surface

import (
	"encoding/json"
	"io"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// JSONRenderer marshals results to indented JSON.
type JSONRenderer struct{}

// TargetOutput is the JSON document written for a target query. The API
// returns the same shape.
type TargetOutput struct {
	grades.TargetResult
	Target  float64 `json:"target"`
	Message string  `json:"message"`
}

// MarshalJSON merges the result fields with the extra ones. The embedded
// result has its own MarshalJSON, which would otherwise be promoted.
func (o TargetOutput) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(o.TargetResult)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	if fields["target"], err = json.Marshal(o.Target); err != nil {
		return nil, err
	}
	if fields["message"], err = json.Marshal(o.Message); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// NewTargetOutput pairs a result with its query target and message.
func NewTargetOutput(q grades.TargetQuery, res grades.TargetResult) TargetOutput {
	return TargetOutput{
		TargetResult: res,
		Target:       q.Target,
		Message:      TargetMessage(res, q.Scale()),
	}
}

func (r *JSONRenderer) RenderReport(w io.Writer, report *grades.YearReport) error {
	return encode(w, report)
}

func (r *JSONRenderer) RenderTarget(w io.Writer, q grades.TargetQuery, res grades.TargetResult) error {
	return encode(w, NewTargetOutput(q, res))
}

func (r *JSONRenderer) RenderAverage(w io.Writer, result grades.Result) error {
	return encode(w, result)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
