package snapdiff

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Outcome is the result of comparing one capture.
type Outcome struct {
	// Key is the snapshot key compared against.
	Key string

	// Created is set when no baseline existed and the capture was stored as
	// the new baseline.
	Created bool

	// Updated is set when an existing baseline was overwritten.
	Updated bool

	// DiffPixels is the number of differing pixels.
	DiffPixels int

	// Passed reports whether the capture is within tolerance.
	Passed bool

	// Message describes a failed comparison.
	Message string

	// Artifacts are the files written for a failed comparison.
	Artifacts []string
}

// Snapshots stores reference captures and compares new captures to them.
type Snapshots interface {
	// CompareToBaseline compares img to the baseline stored under key. When
	// no baseline exists, img becomes the baseline and the comparison
	// passes.
	CompareToBaseline(unit string, img []byte, key string, tol Tolerance) (Outcome, error)

	// CompareToSnapshot compares img to the snapshot stored under key. The
	// snapshot is never written; a missing one is ErrNoSnapshot.
	CompareToSnapshot(unit string, img []byte, key string, tol Tolerance) (Outcome, error)
}

// SnapshotDir keeps snapshots as PNG files in a directory.
//
// Writes are keyed by snapshot key and unit name, so units with distinct
// names never write the same file.
type SnapshotDir struct {
	// Dir holds the stored snapshots.
	Dir string

	// Results receives actual, expected and diff images of failed
	// comparisons, one sub directory per unit. Nothing is written when
	// empty.
	Results string

	// Update overwrites existing baselines instead of comparing to them.
	Update bool
}

// Path returns the file a snapshot key is stored in.
func (d *SnapshotDir) Path(key string) string {
	return filepath.Join(d.Dir, FileName(key))
}

// CompareToBaseline satisfies Snapshots.
func (d *SnapshotDir) CompareToBaseline(unit string, img []byte, key string, tol Tolerance) (Outcome, error) {
	out := Outcome{Key: key}
	path := d.Path(key)
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		out.Created = true
	case err != nil:
		return out, err
	case d.Update:
		out.Updated = true
	default:
		return d.compare(out, unit, img, path, tol)
	}
	if err := writeFile(path, img); err != nil {
		return out, err
	}
	out.Passed = true
	return out, nil
}

// CompareToSnapshot satisfies Snapshots.
func (d *SnapshotDir) CompareToSnapshot(unit string, img []byte, key string, tol Tolerance) (Outcome, error) {
	out := Outcome{Key: key}
	path := d.Path(key)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return out, fmt.Errorf("%w: %s", ErrNoSnapshot, key)
	} else if err != nil {
		return out, err
	}
	return d.compare(out, unit, img, path, tol)
}

func (d *SnapshotDir) compare(out Outcome, unit string, img []byte, path string, tol Tolerance) (Outcome, error) {
	expBuf, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	exp, err := DecodePNG(expBuf)
	if err != nil {
		return out, fmt.Errorf("%s: %w", path, err)
	}
	act, err := DecodePNG(img)
	if err != nil {
		return out, err
	}

	n, diff, err := Match(act, exp, tol.Threshold)
	switch {
	case errors.Is(err, ErrSizeMismatch):
		out.Message = err.Error()
	case err != nil:
		return out, err
	default:
		out.DiffPixels = n
		out.Passed = n <= tol.MaxDiffPixels
		if !out.Passed {
			out.Message = fmt.Sprintf("%d pixels are different, %d allowed", n, tol.MaxDiffPixels)
		}
	}
	if out.Passed {
		return out, nil
	}

	out.Artifacts, err = d.writeArtifacts(unit, out.Key, img, expBuf, diff)
	return out, err
}

// writeArtifacts writes the images of a failed comparison to the unit's
// results directory.
func (d *SnapshotDir) writeArtifacts(unit, key string, act, exp []byte, diff image.Image) ([]string, error) {
	if d.Results == "" {
		return nil, nil
	}
	dir := filepath.Join(d.Results, FileName(unit))
	base := strings.TrimSuffix(FileName(key), ".png")

	files := []struct {
		suffix string
		buf    []byte
	}{
		{"-actual.png", act},
		{"-expected.png", exp},
	}
	if diff != nil {
		buf, err := EncodePNG(diff)
		if err != nil {
			return nil, err
		}
		files = append(files, struct {
			suffix string
			buf    []byte
		}{"-diff.png", buf})
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, base+f.suffix)
		if err := writeFile(path, f.buf); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeFile writes buf to path through a temporary file in the same
// directory, creating the directory when needed.
func writeFile(path string, buf []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".snapdiff-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
