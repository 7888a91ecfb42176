package snapdiff

import (
	"time"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
)

// Report summarizes a suite run.
type Report struct {
	Started  time.Time
	Duration time.Duration
	Results  []*Result
}

// NewReport creates a report for results of a run started at start.
func NewReport(start time.Time, results []*Result) *Report {
	return &Report{
		Started:  start,
		Duration: time.Since(start),
		Results:  results,
	}
}

// Count returns the number of results with status st.
func (r *Report) Count(st Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == st {
			n++
		}
	}
	return n
}

// Unexpected returns the results which did not end with their expected
// status.
func (r *Report) Unexpected() []*Result {
	var unexpected []*Result
	for _, res := range r.Results {
		if res.Unexpected() {
			unexpected = append(unexpected, res)
		}
	}
	return unexpected
}

// OK reports whether every unit ended with its expected status.
func (r *Report) OK() bool {
	return len(r.Unexpected()) == 0
}

// MarshalJSON satisfies json.Marshaler.
func (r *Report) MarshalJSON() ([]byte, error) {
	return easyjson.Marshal(r)
}

// MarshalEasyJSON satisfies easyjson.Marshaler.
func (r *Report) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"started":`)
	w.String(r.Started.UTC().Format(time.RFC3339Nano))
	w.RawString(`,"duration_ms":`)
	w.Int64(r.Duration.Milliseconds())
	w.RawString(`,"passed":`)
	w.Int(r.Count(StatusPassed))
	w.RawString(`,"failed":`)
	w.Int(r.Count(StatusFailed))
	w.RawString(`,"timed_out":`)
	w.Int(r.Count(StatusTimedOut))
	w.RawString(`,"results":[`)
	for i, res := range r.Results {
		if i > 0 {
			w.RawByte(',')
		}
		res.MarshalEasyJSON(w)
	}
	w.RawString(`]}`)
}

// MarshalEasyJSON satisfies easyjson.Marshaler.
func (r *Result) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"name":`)
	w.String(r.Name)
	w.RawString(`,"key":`)
	w.String(r.Key)
	w.RawString(`,"mode":`)
	w.String(r.Mode.String())
	w.RawString(`,"status":`)
	w.String(string(r.Status))
	w.RawString(`,"expected":`)
	w.String(string(r.Expected))
	w.RawString(`,"state":`)
	w.String(r.State.String())
	if r.Err != nil {
		w.RawString(`,"error":`)
		w.String(r.Err.Error())
	}
	w.RawString(`,"location":`)
	w.String(r.Location)
	w.RawString(`,"duration_ms":`)
	w.Int64(r.Duration.Milliseconds())
	w.RawString(`,"blocked":`)
	writeStrings(w, r.Blocked)
	w.RawString(`,"outcomes":[`)
	for i := range r.Outcomes {
		if i > 0 {
			w.RawByte(',')
		}
		r.Outcomes[i].MarshalEasyJSON(w)
	}
	w.RawString(`]}`)
}

// MarshalEasyJSON satisfies easyjson.Marshaler.
func (o Outcome) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"key":`)
	w.String(o.Key)
	w.RawString(`,"passed":`)
	w.Bool(o.Passed)
	w.RawString(`,"created":`)
	w.Bool(o.Created)
	w.RawString(`,"updated":`)
	w.Bool(o.Updated)
	w.RawString(`,"diff_pixels":`)
	w.Int(o.DiffPixels)
	if o.Message != "" {
		w.RawString(`,"message":`)
		w.String(o.Message)
	}
	w.RawString(`,"artifacts":`)
	writeStrings(w, o.Artifacts)
	w.RawByte('}')
}

func writeStrings(w *jwriter.Writer, v []string) {
	w.RawByte('[')
	for i, s := range v {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(s)
	}
	w.RawByte(']')
}

// WriteFile writes the report as JSON to path.
func (r *Report) WriteFile(path string) error {
	buf, err := easyjson.Marshal(r)
	if err != nil {
		return err
	}
	return writeFile(path, buf)
}
