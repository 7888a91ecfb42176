package snapdiff

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Config is the top-level snapdiff configuration.
type Config struct {
	// Sites maps labels to hosts.
	Sites map[string]string `yaml:"sites"`

	// DefaultSite is the label used when a suite names no site. Empty is
	// ProductionLabel.
	DefaultSite string `yaml:"default_site"`

	// Pages are the paths every suite visits, followed by those read from
	// PagesFile.
	Pages     []string `yaml:"pages"`
	PagesFile string   `yaml:"pages_file"`

	// Block are the URL fragments of requests to abort. Nil uses
	// DefaultBlockList; an empty list blocks nothing.
	Block []string `yaml:"block"`

	Suites     []SuiteConfig    `yaml:"suites"`
	Tolerance  ToleranceConfig  `yaml:"tolerance"`
	Navigation NavigationConfig `yaml:"navigation"`
	Browser    BrowserConfig    `yaml:"browser"`
	Snapshots  SnapshotConfig   `yaml:"snapshots"`

	// Workers bounds the number of units running at once.
	Workers int `yaml:"workers"`

	// dir is the directory of the config file; relative paths are resolved
	// against it.
	dir string
}

// SuiteConfig is one set of comparison options applied to every page. Absent
// fields take their defaults.
type SuiteConfig struct {
	Mode          string `yaml:"mode"`
	Primary       string `yaml:"primary"`
	Secondary     string `yaml:"secondary"`
	FilterNetwork *bool  `yaml:"filter_network"`
	Expect        string `yaml:"expect"`
}

// ToleranceConfig overrides the default comparison tolerances.
type ToleranceConfig struct {
	MaxDiffPixels     *int     `yaml:"max_diff_pixels"`
	BaselineThreshold *float64 `yaml:"baseline_threshold"`
	Threshold         *float64 `yaml:"threshold"`
}

// NavigationConfig controls how page URLs are built.
type NavigationConfig struct {
	Scheme          string  `yaml:"scheme"`
	SecondaryPrefix *string `yaml:"secondary_prefix"`
}

// SnapshotConfig locates stored snapshots and failure artifacts.
type SnapshotConfig struct {
	Dir     string `yaml:"dir"`
	Results string `yaml:"results"`
	Update  bool   `yaml:"update"`
}

// Default snapshot locations.
const (
	DefaultSnapshotDir = "snapshots"
	DefaultResultsDir  = "test-results"
)

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig parses a YAML configuration, applies defaults and validates it.
// Relative paths are resolved against the working directory.
func ParseConfig(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultSite == "" {
		c.DefaultSite = ProductionLabel
	}
	if c.Snapshots.Dir == "" {
		c.Snapshots.Dir = DefaultSnapshotDir
	}
	if c.Snapshots.Results == "" {
		c.Snapshots.Results = DefaultResultsDir
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if len(c.Suites) == 0 {
		c.Suites = []SuiteConfig{{}}
	}
	c.Browser.applyDefaults()
}

func (c *Config) validate() error {
	if len(c.Sites) == 0 {
		return fmt.Errorf("%w: no sites", ErrInvalidConfig)
	}
	if _, ok := c.Sites[c.DefaultSite]; !ok {
		return fmt.Errorf("%w: default site %q is not defined", ErrInvalidConfig, c.DefaultSite)
	}
	for i, s := range c.Suites {
		if _, err := ParseMode(s.Mode); err != nil {
			return fmt.Errorf("%w: suite %d: %v", ErrInvalidConfig, i, err)
		}
		if _, err := ParseStatus(s.Expect); err != nil {
			return fmt.Errorf("%w: suite %d: %v", ErrInvalidConfig, i, err)
		}
		for _, label := range []string{s.Primary, s.Secondary} {
			if _, ok := c.Sites[label]; label != "" && !ok {
				return fmt.Errorf("%w: suite %d: unknown site %q", ErrInvalidConfig, i, label)
			}
		}
	}
	t := c.Tolerance
	if t.MaxDiffPixels != nil && *t.MaxDiffPixels < 0 {
		return fmt.Errorf("%w: max_diff_pixels must not be negative", ErrInvalidConfig)
	}
	for _, th := range []*float64{t.BaselineThreshold, t.Threshold} {
		if th != nil && (*th < 0 || *th > 1) {
			return fmt.Errorf("%w: threshold %v out of range [0, 1]", ErrInvalidConfig, *th)
		}
	}
	return nil
}

// path resolves p against the config file directory.
func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Registry builds the site registry.
func (c *Config) Registry() (*Registry, error) {
	labels := maps.Keys(c.Sites)
	slices.Sort(labels)
	sites := make([]Site, 0, len(labels))
	for _, label := range labels {
		sites = append(sites, Site{Label: label, Host: c.Sites[label]})
	}
	return NewRegistry(sites, WithDefaultSite(c.DefaultSite))
}

// BlockList builds the request block list.
func (c *Config) BlockList() *BlockList {
	if c.Block == nil {
		return DefaultBlockList
	}
	return NewBlockList(c.Block...)
}

// Defaults builds the comparison defaults.
func (c *Config) Defaults(r *Registry) Defaults {
	d := NewDefaults(r.Production())
	if c.Navigation.Scheme != "" {
		d.Scheme = c.Navigation.Scheme
	}
	if p := c.Navigation.SecondaryPrefix; p != nil {
		d.SecondaryPrefix = *p
	}
	if n := c.Tolerance.MaxDiffPixels; n != nil {
		d.MaxDiffPixels = *n
	}
	if th := c.Tolerance.BaselineThreshold; th != nil {
		d.BaselineThreshold = *th
	}
	if th := c.Tolerance.Threshold; th != nil {
		d.Threshold = *th
	}
	return d
}

// LoadPages returns Pages followed by the paths in PagesFile. Blank lines and
// lines starting with '#' are skipped.
func (c *Config) LoadPages() ([]string, error) {
	pages := append([]string(nil), c.Pages...)
	if c.PagesFile == "" {
		return pages, nil
	}
	buf, err := os.ReadFile(c.path(c.PagesFile))
	if err != nil {
		return nil, err
	}
	s := bufio.NewScanner(bytes.NewReader(buf))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pages = append(pages, line)
	}
	return pages, s.Err()
}

// Units generates the units of every suite, suite by suite and page by page
// within each suite.
func (c *Config) Units(r *Registry) ([]*Unit, error) {
	pages, err := c.LoadPages()
	if err != nil {
		return nil, err
	}
	d := c.Defaults(r)
	var units []*Unit
	for _, sc := range c.Suites {
		opts, err := sc.options(r)
		if err != nil {
			return nil, err
		}
		units = append(units, Generate(pages, d, opts...)...)
	}
	return units, nil
}

// options converts sc into comparison options; only fields present in the
// configuration are set.
func (sc SuiteConfig) options(r *Registry) ([]Option, error) {
	var opts []Option
	if sc.Mode != "" {
		m, err := ParseMode(sc.Mode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithMode(m))
	}
	if sc.Primary != "" {
		s, err := r.Resolve(sc.Primary)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPrimary(s))
	}
	if sc.Secondary != "" {
		s, err := r.Resolve(sc.Secondary)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSecondary(s))
	}
	if sc.FilterNetwork != nil {
		opts = append(opts, WithFilterNetwork(*sc.FilterNetwork))
	}
	if sc.Expect != "" {
		st, err := ParseStatus(sc.Expect)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithExpectedStatus(st))
	}
	return opts, nil
}

// SnapshotDir returns the snapshot store.
func (c *Config) SnapshotDir() *SnapshotDir {
	return &SnapshotDir{
		Dir:     c.path(c.Snapshots.Dir),
		Results: c.path(c.Snapshots.Results),
		Update:  c.Snapshots.Update,
	}
}

// Suite starts the configured browser and returns a suite running every unit
// in it. Run the suite with the returned context; cancel stops the browser.
// Either logging func may be nil.
func (c *Config) Suite(ctx context.Context, logf, debugf func(string, ...interface{})) (context.Context, *Suite, context.CancelFunc, error) {
	r, err := c.Registry()
	if err != nil {
		return nil, nil, nil, err
	}
	units, err := c.Units(r)
	if err != nil {
		return nil, nil, nil, err
	}
	browserCtx, cancel, err := NewBrowser(ctx, c.Browser, debugf)
	if err != nil {
		return nil, nil, nil, err
	}
	s := &Suite{
		Units:     units,
		Open:      TabOpener(WithViewport(int64(c.Browser.Width), int64(c.Browser.Height)), WithDebugf(debugf)),
		Snapshots: c.SnapshotDir(),
		BlockList: c.BlockList(),
		Workers:   c.Workers,
		Timeout:   c.Browser.Timeout,
		Logf:      logf,
	}
	return browserCtx, s, cancel, nil
}
