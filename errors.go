package snapdiff

import (
	"errors"
)

// Error types.
var (
	// ErrInvalidSite is the error returned when a site has an empty label or
	// host.
	ErrInvalidSite = errors.New("invalid site")

	// ErrDuplicateSite is the error returned when two sites share a label.
	ErrDuplicateSite = errors.New("duplicate site label")

	// ErrUnknownSite is the error returned when a label does not resolve to
	// a registered site.
	ErrUnknownSite = errors.New("unknown site")

	// ErrSizeMismatch is the error returned when two images being compared
	// have different dimensions.
	ErrSizeMismatch = errors.New("image sizes do not match")

	// ErrNoSnapshot is the error returned when a capture is compared
	// against a snapshot that was never stored.
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrMismatch is the error recorded on a result when a capture differs
	// from its reference beyond tolerance.
	ErrMismatch = errors.New("screenshot mismatch")

	// ErrInvalidConfig is the error returned when a configuration file fails
	// validation.
	ErrInvalidConfig = errors.New("invalid config")
)
