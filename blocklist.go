package snapdiff

import (
	"strings"
)

// DefaultBlockList holds URL fragments of common analytics, advertising and
// session recording scripts. They add noise to screenshots without
// contributing to the rendered page.
var DefaultBlockList = NewBlockList(
	"google-analytics.com",
	"googletagmanager.com",
	"googlesyndication.com",
	"doubleclick.net",
	"connect.facebook.net",
	"hotjar.com",
	"hs-scripts.com",
	"hs-analytics.net",
	"segment.com/analytics.js",
	"cdn.optimizely.com",
	"newrelic.com",
	"nr-data.net",
	"fullstory.com",
	"intercom.io",
	"bat.bing.com",
)

// BlockList is a fixed set of URL fragments. A request is blocked when its URL
// contains any fragment.
//
// A BlockList is never modified after NewBlockList returns and is safe for
// concurrent use.
type BlockList struct {
	fragments []string
}

// NewBlockList returns a block list of the non-empty fragments.
func NewBlockList(fragments ...string) *BlockList {
	bl := &BlockList{fragments: make([]string, 0, len(fragments))}
	for _, f := range fragments {
		if f != "" {
			bl.fragments = append(bl.fragments, f)
		}
	}
	return bl
}

// Match returns the first fragment contained in urlstr.
func (bl *BlockList) Match(urlstr string) (string, bool) {
	if bl == nil {
		return "", false
	}
	for _, f := range bl.fragments {
		if strings.Contains(urlstr, f) {
			return f, true
		}
	}
	return "", false
}

// Blocked reports whether urlstr contains any fragment.
func (bl *BlockList) Blocked(urlstr string) bool {
	_, ok := bl.Match(urlstr)
	return ok
}

// Fragments returns a copy of the fragments.
func (bl *BlockList) Fragments() []string {
	if bl == nil {
		return nil
	}
	return append([]string(nil), bl.fragments...)
}

// Len returns the number of fragments.
func (bl *BlockList) Len() int {
	if bl == nil {
		return 0
	}
	return len(bl.fragments)
}
