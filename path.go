package snapdiff

import (
	"strings"
)

// homepage is the sanitized form of the root path.
const homepage = "homepage"

// SanitizePath derives the name used for a path in unit names and snapshot
// keys. The root path becomes "homepage"; any other path loses only its first
// "/". Remaining slashes are kept and are replaced by FileName when the name
// is written to disk.
func SanitizePath(path string) string {
	if path == "/" {
		return homepage
	}
	return strings.Replace(path, "/", "", 1)
}

// FileName makes name safe for use as a single file name component, replacing
// every run of characters other than letters, digits, '.', '-' and '_' with
// a single '_'.
func FileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	sep := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
			sep = false
		case !sep:
			b.WriteByte('_')
			sep = true
		}
	}
	return b.String()
}
