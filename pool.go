package snapdiff

import (
	"context"
	"sync"
	"time"
)

// DefaultWorkers is the number of units a Suite runs at once when Workers is
// not set.
const DefaultWorkers = 4

// Opener opens the page a unit runs on. The returned context must be used for
// the page's operations; cancel releases the page.
type Opener func(ctx context.Context) (_ context.Context, _ Page, cancel context.CancelFunc, _ error)

// TabOpener returns an Opener creating one chromedp tab per unit. The context
// given to Suite.Run must hold a browser, as returned by NewBrowser.
func TabOpener(opts ...TabOption) Opener {
	return func(ctx context.Context) (context.Context, Page, context.CancelFunc, error) {
		tabCtx, tab, cancel := NewTab(ctx, opts...)
		return tabCtx, tab, cancel, nil
	}
}

// Suite runs a set of units on a bounded number of pages.
type Suite struct {
	Units     []*Unit
	Open      Opener
	Snapshots Snapshots
	BlockList *BlockList

	// Workers bounds the number of units running at once.
	Workers int

	// Timeout bounds each unit. Zero leaves units unbounded.
	Timeout time.Duration

	// Logf receives blocked requests and unit completion lines. Nil uses
	// Logger.
	Logf func(string, ...interface{})
}

// Run runs every unit and returns the results in unit order. A failing unit
// never stops its siblings; Run returns once all units have finished.
func (s *Suite) Run(ctx context.Context) []*Result {
	if len(s.Units) == 0 {
		return nil
	}
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logf := s.Logf
	if logf == nil {
		logf = Logger.Printf
	}

	results := make([]*Result, len(s.Units))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, u := range s.Units {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, u *Unit) {
			defer func() {
				<-sem
				wg.Done()
			}()
			res := s.run(ctx, u, logf)
			logf("Finished %s with status %s", res.Name, res.Status)
			if res.Unexpected() {
				logf("Did not run as expected, ended up at %s", res.Location)
			}
			results[i] = res
		}(i, u)
	}
	wg.Wait()
	return results
}

func (s *Suite) run(ctx context.Context, u *Unit, logf func(string, ...interface{})) *Result {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	pageCtx, page, release, err := s.Open(ctx)
	if err != nil {
		return &Result{
			Name:     u.Name,
			Key:      u.Key,
			Mode:     u.Mode,
			Status:   StatusFailed,
			Expected: u.Expect,
			State:    StateFailed,
			Err:      err,
			Start:    time.Now(),
		}
	}
	defer release()
	return Run(pageCtx, page, s.Snapshots, u, s.BlockList, logf)
}
