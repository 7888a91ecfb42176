package snapdiff

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReport(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	r := &Report{
		Started:  start,
		Duration: 1500 * time.Millisecond,
		Results: []*Result{
			{
				Name:     "staging to prod on about",
				Key:      "staging-about.png",
				Status:   StatusPassed,
				Expected: StatusPassed,
				State:    StatePassed,
				Location: "https://www.prod/about",
				Blocked:  []string{"https://cdn.example.com/tracker.js"},
				Outcomes: []Outcome{{Key: "staging-about.png", Passed: true, Created: true}},
			},
			{
				Name:     "staging to prod on \"quoted\"",
				Key:      "staging-quoted.png",
				Status:   StatusFailed,
				Expected: StatusPassed,
				State:    StateFailed,
				Err:      errors.New("screenshot mismatch"),
				Outcomes: []Outcome{{Key: "staging-quoted.png", DiffPixels: 12, Message: "12 pixels are different, 10 allowed"}},
			},
		},
	}

	buf, err := r.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Started    string `json:"started"`
		DurationMS int64  `json:"duration_ms"`
		Passed     int    `json:"passed"`
		Failed     int    `json:"failed"`
		Results    []struct {
			Name     string   `json:"name"`
			Mode     string   `json:"mode"`
			Status   string   `json:"status"`
			State    string   `json:"state"`
			Error    string   `json:"error"`
			Blocked  []string `json:"blocked"`
			Outcomes []struct {
				Created    bool   `json:"created"`
				DiffPixels int    `json:"diff_pixels"`
				Message    string `json:"message"`
			} `json:"outcomes"`
		} `json:"results"`
	}
	if err := json.Unmarshal(buf, &got); err != nil {
		t.Fatalf("invalid json %s: %v", buf, err)
	}
	if got.Started != "2026-10-14T09:00:00Z" || got.DurationMS != 1500 {
		t.Errorf("unexpected header %+v", got)
	}
	if got.Passed != 1 || got.Failed != 1 {
		t.Errorf("want 1 passed, 1 failed, got %d, %d", got.Passed, got.Failed)
	}
	if len(got.Results) != 2 {
		t.Fatalf("want 2 results, got %d", len(got.Results))
	}
	if res := got.Results[0]; res.Mode != "comparison" || res.State != "Passed" || !res.Outcomes[0].Created || len(res.Blocked) != 1 {
		t.Errorf("unexpected first result %+v", res)
	}
	if res := got.Results[1]; res.Name != `staging to prod on "quoted"` || res.Error != "screenshot mismatch" || res.Outcomes[0].DiffPixels != 12 {
		t.Errorf("unexpected second result %+v", res)
	}
	if r.OK() || len(r.Unexpected()) != 1 {
		t.Error("a failed unit expected to pass should make the report not OK")
	}
}

func TestReportWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results", "report.json")
	r := NewReport(time.Now(), nil)
	if err := r.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]interface{}
	if err := json.Unmarshal(buf, &v); err != nil {
		t.Fatalf("invalid json %s: %v", buf, err)
	}
	if !r.OK() {
		t.Error("an empty report should be OK")
	}
}
