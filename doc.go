// Package snapdiff runs visual regression and cross-environment comparison
// suites on top of chromedp.
//
// A suite is a list of page paths combined with one set of comparison
// options. Each path becomes an independent Unit which navigates a Chrome
// tab, captures a full-page screenshot and compares it, either against a
// stored baseline (regression mode) or against the same page served by a
// second host (comparison mode). Pixel comparison is done by pixelmatch.
//
// Typical use goes through a YAML configuration:
//
//	cfg, err := snapdiff.LoadConfig("snapdiff.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	browserCtx, suite, cancel, err := cfg.Suite(ctx, log.Printf, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cancel()
//	results := suite.Run(browserCtx)
//
// See cmd/snapdiff for a command line runner.
package snapdiff
