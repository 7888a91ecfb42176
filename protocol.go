package snapdiff

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status is the terminal status of a unit.
type Status string

// Statuses.
const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timedOut"
)

// ParseStatus parses a status. The empty string is StatusPassed.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "":
		return StatusPassed, nil
	case StatusPassed, StatusFailed, StatusTimedOut:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// State is a step of the capture and compare sequence.
type State int

// States, in the order a unit moves through them. Regression units skip
// StateNavigatedSecondary and StateCapturedComparison.
const (
	StateIdle State = iota
	StateNavigatedPrimary
	StateCapturedBaseline
	StateNavigatedSecondary
	StateCapturedComparison
	StateCompared
	StatePassed
	StateFailed
)

// String satisfies fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateNavigatedPrimary:
		return "NavigatedPrimary"
	case StateCapturedBaseline:
		return "CapturedBaseline"
	case StateNavigatedSecondary:
		return "NavigatedSecondary"
	case StateCapturedComparison:
		return "CapturedComparison"
	case StateCompared:
		return "Compared"
	case StatePassed:
		return "Passed"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Page is a browser page a unit drives. Every method blocks until the
// browser has completed the operation.
type Page interface {
	// Intercept installs block as the request filter for the next
	// navigation, replacing any previous filter. block is called with the
	// page's current URL, empty when not yet known, and the request URL.
	// Requests for which block returns true are aborted, all others
	// continue.
	Intercept(ctx context.Context, block func(page, urlstr string) bool) error

	// Navigate navigates to urlstr and waits for the page to load.
	Navigate(ctx context.Context, urlstr string) error

	// Capture takes a PNG screenshot of the page, or of the viewport when
	// fullPage is false.
	Capture(ctx context.Context, fullPage bool) ([]byte, error)

	// Location returns the URL of the current document.
	Location(ctx context.Context) (string, error)
}

// Result is the outcome of running one unit.
type Result struct {
	Name     string
	Key      string
	Mode     Mode
	Status   Status
	Expected Status

	// State is the last state the unit reached.
	State State

	// Err is the reason the unit failed.
	Err error

	// Location is the URL the page ended up at.
	Location string

	Outcomes []Outcome
	Blocked  []string

	Start    time.Time
	Duration time.Duration
}

// Unexpected reports whether the unit ended with a status other than the one
// it was expected to.
func (r *Result) Unexpected() bool {
	return r.Status != r.Expected
}

// Run executes u on p, comparing captures with s. Request filtering uses bl
// when enabled on u. Blocked requests are logged with logf, which may be nil.
//
// Run never returns an error; the failure reason is recorded on the result.
func Run(ctx context.Context, p Page, s Snapshots, u *Unit, bl *BlockList, logf func(string, ...interface{})) *Result {
	if logf == nil {
		logf = nopf
	}
	r := &run{
		p:    p,
		s:    s,
		u:    u,
		bl:   bl,
		logf: logf,
		res: &Result{
			Name:     u.Name,
			Key:      u.Key,
			Mode:     u.Mode,
			Expected: u.Expect,
			State:    StateIdle,
			Start:    time.Now(),
		},
	}
	err := r.exec(ctx)

	r.mu.Lock()
	r.done = true
	r.mu.Unlock()

	res := r.res
	res.Duration = time.Since(res.Start)
	res.Err = err
	switch {
	case err == nil:
		res.Status, res.State = StatusPassed, StatePassed
	case errors.Is(err, context.DeadlineExceeded):
		res.Status, res.State = StatusTimedOut, StateFailed
	default:
		res.Status, res.State = StatusFailed, StateFailed
	}
	if ctx.Err() == nil {
		if loc, err := p.Location(ctx); err == nil && loc != "" {
			res.Location = loc
		}
	}
	return res
}

type run struct {
	p    Page
	s    Snapshots
	u    *Unit
	bl   *BlockList
	logf func(string, ...interface{})

	// mu protects res.Blocked and done. The request filter may still be
	// called after Run returns.
	mu   sync.Mutex
	res  *Result
	done bool
}

func (r *run) exec(ctx context.Context) error {
	u := r.u

	if err := r.navigate(ctx, StateNavigatedPrimary, u.PrimaryURL()); err != nil {
		return err
	}
	img, err := r.capture(ctx, StateCapturedBaseline)
	if err != nil {
		return err
	}
	out, err := r.s.CompareToBaseline(u.Name, img, u.Key, Tolerance{
		MaxDiffPixels: u.MaxDiffPixels,
		Threshold:     u.BaselineThreshold,
	})
	if err != nil {
		return err
	}
	r.res.Outcomes = append(r.res.Outcomes, out)
	if u.Mode == ModeRegression || !out.Passed {
		r.res.State = StateCompared
		return outcomeErr(out)
	}

	if err := r.navigate(ctx, StateNavigatedSecondary, u.SecondaryURL()); err != nil {
		return err
	}
	if img, err = r.capture(ctx, StateCapturedComparison); err != nil {
		return err
	}
	out, err = r.s.CompareToSnapshot(u.Name, img, u.Key, Tolerance{
		Threshold: u.Threshold,
	})
	if err != nil {
		return err
	}
	r.res.Outcomes = append(r.res.Outcomes, out)
	r.res.State = StateCompared
	return outcomeErr(out)
}

// navigate installs the request filter, when enabled, and navigates to
// urlstr. The filter is installed anew for every navigation.
func (r *run) navigate(ctx context.Context, next State, urlstr string) error {
	if r.u.FilterNetwork {
		if err := r.p.Intercept(ctx, r.blocker(urlstr)); err != nil {
			return fmt.Errorf("intercept requests: %w", err)
		}
	}
	r.res.Location = urlstr
	if err := r.p.Navigate(ctx, urlstr); err != nil {
		return fmt.Errorf("navigate %s: %w", urlstr, err)
	}
	r.res.State = next
	return nil
}

func (r *run) capture(ctx context.Context, next State) ([]byte, error) {
	img, err := r.p.Capture(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", r.res.Location, err)
	}
	r.res.State = next
	return img, nil
}

// blocker returns the request filter for a navigation to target. Blocked
// requests are logged against the page's current URL, or target before the
// page has one.
func (r *run) blocker(target string) func(string, string) bool {
	return func(page, urlstr string) bool {
		if !r.bl.Blocked(urlstr) {
			return false
		}
		if page == "" {
			page = target
		}
		r.logf("[%s] - Blocking Request %s", page, urlstr)
		r.mu.Lock()
		if !r.done {
			r.res.Blocked = append(r.res.Blocked, urlstr)
		}
		r.mu.Unlock()
		return true
	}
}

func outcomeErr(out Outcome) error {
	if out.Passed {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrMismatch, out.Key, out.Message)
}
