package snapdiff

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var (
	// browserCtx holds a shared browser, or is nil when no Chrome was
	// found.
	browserCtx context.Context

	// server serves testPages.
	server *httptest.Server

	// trackerHits counts requests which reached /tracker.js.
	trackerHits int32
	appHits     int32
)

const testPage = `<!doctype html>
<html>
<head>
<style>body { margin: 0; background: #fff; } div { height: 1600px; background: linear-gradient(#fff, #36c); }</style>
<script src="/tracker.js?v=2"></script>
<script src="/app.js"></script>
</head>
<body><div></div></body>
</html>`

func findChrome() string {
	if path := os.Getenv("SNAPDIFF_TEST_RUNNER"); path != "" {
		return path
	}
	for _, name := range []string{
		"headless-shell",
		"headless_shell",
		"chromium",
		"chromium-browser",
		"google-chrome",
		"google-chrome-stable",
	} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func TestMain(m *testing.M) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tracker.js", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&trackerHits, 1)
		w.Header().Set("Content-Type", "application/javascript")
		fmt.Fprint(w, `document.body && document.body.setAttribute("data-tracked", "1");`)
	})
	mux.HandleFunc("/app.js", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&appHits, 1)
		w.Header().Set("Content-Type", "application/javascript")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	})
	server = httptest.NewServer(mux)

	var cancel context.CancelFunc
	if execPath := findChrome(); execPath != "" {
		var err error
		browserCtx, cancel, err = NewBrowser(context.Background(), BrowserConfig{
			ExecPath:  execPath,
			NoSandbox: os.Getenv("SNAPDIFF_NO_SANDBOX") != "false",
			Width:     600,
			Height:    400,
		}, nil)
		if err != nil {
			panic(fmt.Sprintf("could not start %s: %v", execPath, err))
		}
	}

	code := m.Run()

	if cancel != nil {
		cancel()
	}
	server.Close()
	os.Exit(code)
}

func testTab(t *testing.T) (context.Context, *Tab) {
	t.Helper()
	if browserCtx == nil {
		t.Skip("no Chrome found; set SNAPDIFF_TEST_RUNNER")
	}
	ctx, tab, cancel := NewTab(browserCtx, WithViewport(600, 400))
	ctx, cancelTimeout := context.WithTimeout(ctx, 30*time.Second)
	t.Cleanup(func() {
		cancelTimeout()
		cancel()
	})
	return ctx, tab
}

func TestTabIntercept(t *testing.T) {
	ctx, tab := testTab(t)

	tracker, app := atomic.LoadInt32(&trackerHits), atomic.LoadInt32(&appHits)
	bl := NewBlockList("tracker.js")
	var mu sync.Mutex
	var pages []string
	block := func(page, urlstr string) bool {
		if !bl.Blocked(urlstr) {
			return false
		}
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()
		return true
	}
	if err := tab.Intercept(ctx, block); err != nil {
		t.Fatal(err)
	}
	if err := tab.Navigate(ctx, server.URL+"/"); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&trackerHits); got != tracker {
		t.Errorf("blocked script was requested %d times", got-tracker)
	}
	if got := atomic.LoadInt32(&appHits); got == app {
		t.Error("allowed script was never requested")
	}

	loc, err := tab.Location(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loc != server.URL+"/" {
		t.Errorf("unexpected location %q", loc)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(pages) == 0 || pages[0] != server.URL+"/" {
		t.Errorf("want blocked requests attributed to %s, got %q", server.URL+"/", pages)
	}
}

func TestTabInterceptReinstalled(t *testing.T) {
	ctx, tab := testTab(t)

	tracker := atomic.LoadInt32(&trackerHits)
	for i := 0; i < 2; i++ {
		var calls int32
		block := func(_, urlstr string) bool {
			atomic.AddInt32(&calls, 1)
			return NewBlockList("tracker.js").Blocked(urlstr)
		}
		if err := tab.Intercept(ctx, block); err != nil {
			t.Fatal(err)
		}
		if err := tab.Navigate(ctx, fmt.Sprintf("%s/page%d", server.URL, i)); err != nil {
			t.Fatal(err)
		}
		if atomic.LoadInt32(&calls) == 0 {
			t.Errorf("navigation %d: filter never consulted", i)
		}
	}
	if got := atomic.LoadInt32(&trackerHits); got != tracker {
		t.Errorf("blocked script was requested %d times", got-tracker)
	}
}

func TestTabCapture(t *testing.T) {
	ctx, tab := testTab(t)

	if err := tab.Navigate(ctx, server.URL+"/"); err != nil {
		t.Fatal(err)
	}
	buf, err := tab.Capture(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	full, err := DecodePNG(buf)
	if err != nil {
		t.Fatal(err)
	}
	if buf, err = tab.Capture(ctx, false); err != nil {
		t.Fatal(err)
	}
	viewport, err := DecodePNG(buf)
	if err != nil {
		t.Fatal(err)
	}
	if full.Bounds().Dy() <= viewport.Bounds().Dy() {
		t.Errorf("full page capture (%v) should be taller than the viewport (%v)", full.Bounds(), viewport.Bounds())
	}
}

func TestSuiteWithTabs(t *testing.T) {
	if browserCtx == nil {
		t.Skip("no Chrome found; set SNAPDIFF_TEST_RUNNER")
	}

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	local := Site{Label: "local", Host: u.Host}
	d := NewDefaults(local)
	d.Scheme = "http"

	snaps := &SnapshotDir{Dir: t.TempDir(), Results: t.TempDir()}
	logs := new(logRecorder)
	s := &Suite{
		Units:     Generate([]string{"/", "/about"}, d, WithMode(ModeRegression)),
		Open:      TabOpener(WithViewport(600, 400)),
		Snapshots: snaps,
		BlockList: NewBlockList("tracker.js"),
		Workers:   2,
		Timeout:   30 * time.Second,
		Logf:      logs.logf,
	}

	// The first run stores baselines, the second compares against them.
	for run := 0; run < 2; run++ {
		for _, res := range s.Run(browserCtx) {
			if res.Status != StatusPassed {
				t.Fatalf("run %d: %s: want passed, got %s: %v", run, res.Name, res.Status, res.Err)
			}
			if created := res.Outcomes[0].Created; created != (run == 0) {
				t.Errorf("run %d: %s: unexpected created %v", run, res.Name, created)
			}
			if len(res.Blocked) == 0 {
				t.Errorf("run %d: %s: tracker was not blocked", run, res.Name)
			}
		}
	}
	if !logs.contains("Blocking Request " + server.URL + "/tracker.js?v=2") {
		t.Errorf("blocked request not logged: %q", logs.lines)
	}
}
