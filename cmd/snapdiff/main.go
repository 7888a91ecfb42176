// snapdiff runs the visual comparison suites described by a YAML
// configuration file.
//
// Every page of the configuration is visited once per suite. Failed
// comparisons leave actual, expected and diff images in the results
// directory, and a JSON report of the run is written next to them. The exit
// status is 1 when any unit did not end with its expected status.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/chromedp/snapdiff"
)

var (
	flagConfig  = flag.String("c", "snapdiff.yaml", "config file")
	flagUpdate  = flag.Bool("update", false, "overwrite baselines with new captures")
	flagWorkers = flag.Int("workers", 0, "units to run at once (overrides config)")
	flagReport  = flag.String("report", "", "report file (default <results>/report.json)")
	flagList    = flag.Bool("list", false, "list units without running them")
	flagDebug   = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := snapdiff.LoadConfig(*flagConfig)
	if err != nil {
		return err
	}
	if *flagUpdate {
		cfg.Snapshots.Update = true
	}
	if *flagWorkers > 0 {
		cfg.Workers = *flagWorkers
	}

	if *flagList {
		return list(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logf := snapdiff.Logger.Printf
	var debugf func(string, ...interface{})
	if *flagDebug {
		debugf = snapdiff.Logger.Printf
	}

	browserCtx, suite, cancel, err := cfg.Suite(ctx, logf, debugf)
	if err != nil {
		return err
	}
	defer cancel()

	start := time.Now()
	report := snapdiff.NewReport(start, suite.Run(browserCtx))

	path := *flagReport
	if path == "" {
		path = filepath.Join(cfg.SnapshotDir().Results, "report.json")
	}
	if err := report.WriteFile(path); err != nil {
		return err
	}
	logf("%d passed, %d failed, %d timed out in %v, report written to %s",
		report.Count(snapdiff.StatusPassed),
		report.Count(snapdiff.StatusFailed),
		report.Count(snapdiff.StatusTimedOut),
		report.Duration.Round(time.Millisecond), path)

	if !report.OK() {
		cancel()
		os.Exit(1)
	}
	return nil
}

func list(cfg *snapdiff.Config) error {
	r, err := cfg.Registry()
	if err != nil {
		return err
	}
	units, err := cfg.Units(r)
	if err != nil {
		return err
	}
	for _, u := range units {
		fmt.Println(u.Name)
	}
	return nil
}
