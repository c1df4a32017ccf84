package security

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// DefaultDenylist covers version-control metadata, dependency caches,
// environment files and credential material. Supplying any custom list
// replaces it entirely; there is no merging.
var DefaultDenylist = []string{
	".git/**",
	"node_modules/**",
	"__pycache__/**",
	".env",
	"*.env",
	".env.*",
	"credentials.json",
	"*.key",
	"*.pem",
}

// pattern is one compiled denylist entry: the raw text for diagnostics
// plus its slash-separated segments. A segment that is exactly "**"
// matches any number of path segments, including zero; every other
// segment is matched with path.Match against a single path segment.
type pattern struct {
	raw  string
	segs []string
}

// Denylist is an ordered set of compiled glob patterns matched against
// root-relative paths. Matching is pure string work: no filesystem I/O,
// so it composes safely after confinement has trimmed the path.
type Denylist struct {
	patterns []pattern
}

// CompileDenylist parses patterns once so per-call matching stays
// allocation-light. Pattern syntax errors are construction failures.
func CompileDenylist(raw []string) (*Denylist, error) {
	d := &Denylist{patterns: make([]pattern, 0, len(raw))}
	for _, r := range raw {
		trimmed := strings.Trim(r, "/")
		if trimmed == "" {
			continue
		}
		segs := strings.Split(trimmed, "/")
		for _, seg := range segs {
			if seg == "**" {
				continue
			}
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("denylist pattern %q: %w", r, err)
			}
		}
		d.patterns = append(d.patterns, pattern{raw: r, segs: segs})
	}
	return d, nil
}

// Match tests rel against every pattern in list order and returns the
// first match. rel must be a root-relative path; native separators are
// normalized before matching. Matching is case-sensitive and anchored:
// a pattern covers the entire relative path, not a substring of it.
func (d *Denylist) Match(rel string) (string, bool) {
	parts := splitRelative(rel)
	for _, p := range d.patterns {
		if matchSegments(p.segs, parts) {
			return p.raw, true
		}
	}
	return "", false
}

// Patterns returns the raw pattern list in evaluation order.
func (d *Denylist) Patterns() []string {
	out := make([]string, len(d.patterns))
	for i, p := range d.patterns {
		out[i] = p.raw
	}
	return out
}

func splitRelative(rel string) []string {
	rel = filepath.ToSlash(rel)
	rel = strings.Trim(rel, "/")
	if rel == "" || rel == "." {
		return nil
	}
	return strings.Split(rel, "/")
}

// matchSegments runs a row-by-row table match so that stacked "**"
// segments stay linear in the path length instead of backtracking.
func matchSegments(segs, parts []string) bool {
	prev := make([]bool, len(parts)+1)
	cur := make([]bool, len(parts)+1)
	prev[0] = true

	for _, seg := range segs {
		if seg == "**" {
			cur[0] = prev[0]
			for j := 1; j <= len(parts); j++ {
				cur[j] = prev[j] || cur[j-1]
			}
		} else {
			cur[0] = false
			for j := 1; j <= len(parts); j++ {
				ok, err := path.Match(seg, parts[j-1])
				cur[j] = err == nil && ok && prev[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(parts)]
}
