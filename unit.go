package snapdiff

// Unit is one independently executable capture-and-compare operation bound
// to a page path and its resolved options.
type Unit struct {
	// Name is the display name of the unit.
	Name string

	// Key is the snapshot key of the primary capture.
	Key string

	Comparison
}

// NewUnit creates a unit from resolved options.
func NewUnit(c Comparison) *Unit {
	return &Unit{
		Name:       UnitName(c),
		Key:        SnapshotKey(c.Primary, c.Path),
		Comparison: c,
	}
}

// UnitName returns the display name for c:
//
//	"{primary} to {secondary} on {page}"  comparison mode
//	"{primary} - {page}"                  regression mode
func UnitName(c Comparison) string {
	page := SanitizePath(c.Path)
	if c.Mode == ModeRegression {
		return c.Primary.Label + " - " + page
	}
	return c.Primary.Label + " to " + c.Secondary.Label + " on " + page
}

// SnapshotKey returns the key a capture of path on site is stored under.
func SnapshotKey(site Site, path string) string {
	return site.Label + "-" + SanitizePath(path) + ".png"
}

// Generate creates one unit per path, in order, each resolved from d, opts
// and the path. Paths which sanitize to the same name still produce distinct
// units. No paths yields no units.
func Generate(paths []string, d Defaults, opts ...Option) []*Unit {
	if len(paths) == 0 {
		return nil
	}
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	units := make([]*Unit, 0, len(paths))
	for _, p := range paths {
		uo := o
		WithPath(p)(&uo)
		units = append(units, NewUnit(uo.Resolve(d)))
	}
	return units
}
