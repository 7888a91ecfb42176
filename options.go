package snapdiff

import (
	"fmt"
)

// Mode selects how a unit compares its captures.
type Mode int

// Modes.
const (
	// ModeComparison captures the primary site, checks it against its
	// stored snapshot, then compares a capture of the secondary site
	// against that snapshot.
	ModeComparison Mode = iota

	// ModeRegression captures the primary site and compares it against its
	// stored baseline.
	ModeRegression
)

// String satisfies fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeComparison:
		return "comparison"
	case ModeRegression:
		return "regression"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the String form of a mode. The empty string is
// ModeComparison.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "comparison":
		return ModeComparison, nil
	case "regression":
		return ModeRegression, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Defaults are the values Resolve falls back to, plus the capture policy
// shared by every unit of a suite.
type Defaults struct {
	// Site is used for the primary and secondary sites when they are not
	// supplied.
	Site Site

	// Scheme is the URL scheme used for navigation.
	Scheme string

	// SecondaryPrefix is prepended to the secondary host when navigating to
	// it. The primary host is navigated bare.
	SecondaryPrefix string

	// MaxDiffPixels is the number of differing pixels tolerated when a
	// capture is checked against its baseline.
	MaxDiffPixels int

	// BaselineThreshold is the per-pixel color distance, between 0 and 1,
	// used when a capture is checked against its baseline.
	BaselineThreshold float64

	// Threshold is the per-pixel color distance, between 0 and 1, used when
	// the secondary capture is compared against the primary snapshot.
	Threshold float64
}

// Default capture policy.
const (
	DefaultScheme          = "https"
	DefaultSecondaryPrefix = "www."
	DefaultMaxDiffPixels   = 10
	DefaultThreshold       = 0.2
)

// NewDefaults returns the default policy with site as the fallback site.
func NewDefaults(site Site) Defaults {
	return Defaults{
		Site:              site,
		Scheme:            DefaultScheme,
		SecondaryPrefix:   DefaultSecondaryPrefix,
		MaxDiffPixels:     DefaultMaxDiffPixels,
		BaselineThreshold: DefaultThreshold,
		Threshold:         DefaultThreshold,
	}
}

// Options is a partial set of comparison options. A nil field is absent and
// takes its value from Defaults on Resolve.
type Options struct {
	Path          *string
	Primary       *Site
	Secondary     *Site
	FilterNetwork *bool
	Mode          *Mode
	Expect        *Status
}

// Option is a comparison option.
type Option = func(*Options)

// WithPath sets the page path.
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = &path
	}
}

// WithPrimary sets the primary site.
func WithPrimary(s Site) Option {
	return func(o *Options) {
		o.Primary = &s
	}
}

// WithSecondary sets the secondary site.
func WithSecondary(s Site) Option {
	return func(o *Options) {
		o.Secondary = &s
	}
}

// WithFilterNetwork enables or disables request blocking.
func WithFilterNetwork(enabled bool) Option {
	return func(o *Options) {
		o.FilterNetwork = &enabled
	}
}

// WithMode sets the comparison mode.
func WithMode(m Mode) Option {
	return func(o *Options) {
		o.Mode = &m
	}
}

// WithExpectedStatus sets the status a unit is expected to end with.
func WithExpectedStatus(s Status) Option {
	return func(o *Options) {
		o.Expect = &s
	}
}

// Apply sets every field present in src on o.
func (o *Options) Apply(src Options) {
	if src.Path != nil {
		o.Path = src.Path
	}
	if src.Primary != nil {
		o.Primary = src.Primary
	}
	if src.Secondary != nil {
		o.Secondary = src.Secondary
	}
	if src.FilterNetwork != nil {
		o.FilterNetwork = src.FilterNetwork
	}
	if src.Mode != nil {
		o.Mode = src.Mode
	}
	if src.Expect != nil {
		o.Expect = src.Expect
	}
}

// Comparison is a fully resolved set of comparison options.
type Comparison struct {
	Path          string
	Primary       Site
	Secondary     Site
	FilterNetwork bool
	Mode          Mode
	Expect        Status

	Scheme            string
	SecondaryPrefix   string
	MaxDiffPixels     int
	BaselineThreshold float64
	Threshold         float64
}

// Resolve overlays opts on d. Fields are taken from opts only when present,
// so an explicit false or empty value is kept.
func Resolve(d Defaults, opts ...Option) Comparison {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o.Resolve(d)
}

// Resolve overlays o on d.
func (o Options) Resolve(d Defaults) Comparison {
	c := Comparison{
		Path:              "/",
		Primary:           d.Site,
		Secondary:         d.Site,
		FilterNetwork:     true,
		Mode:              ModeComparison,
		Expect:            StatusPassed,
		Scheme:            d.Scheme,
		SecondaryPrefix:   d.SecondaryPrefix,
		MaxDiffPixels:     d.MaxDiffPixels,
		BaselineThreshold: d.BaselineThreshold,
		Threshold:         d.Threshold,
	}
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if o.Path != nil {
		c.Path = *o.Path
	}
	if o.Primary != nil {
		c.Primary = *o.Primary
	}
	if o.Secondary != nil {
		c.Secondary = *o.Secondary
	}
	if o.FilterNetwork != nil {
		c.FilterNetwork = *o.FilterNetwork
	}
	if o.Mode != nil {
		c.Mode = *o.Mode
	}
	if o.Expect != nil {
		c.Expect = *o.Expect
	}
	return c
}

// PrimaryURL returns the URL of the page on the primary site.
func (c Comparison) PrimaryURL() string {
	return c.Scheme + "://" + c.Primary.Host + c.Path
}

// SecondaryURL returns the URL of the page on the secondary site, with
// SecondaryPrefix prepended to the host.
func (c Comparison) SecondaryURL() string {
	return c.Scheme + "://" + c.SecondaryPrefix + c.Secondary.Host + c.Path
}
