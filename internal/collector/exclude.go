package collector

import (
	"regexp"
	"strings"
)

// ExcludeMatcher checks absolute paths against the configured exclusion
// glob patterns. Patterns use shell glob syntax where '*' matches any
// run of characters including '/', so "*/node_modules/*" excludes at
// any depth. A pattern ending in "/*" also excludes the directory
// itself and everything beneath it.
type ExcludeMatcher struct {
	patterns []*regexp.Regexp
	// prefix patterns come from "/*"-suffixed globs and match any
	// ancestor directory of the candidate path.
	prefixes []*regexp.Regexp
}

// NewExcludeMatcher compiles the given glob patterns. Patterns that do
// not compile are dropped silently.
func NewExcludeMatcher(globs []string) *ExcludeMatcher {
	m := &ExcludeMatcher{}
	for _, g := range globs {
		if re, err := compileGlob(g); err == nil {
			m.patterns = append(m.patterns, re)
		}
		if strings.HasSuffix(g, "/*") {
			if re, err := compileGlob(strings.TrimSuffix(g, "/*")); err == nil {
				m.prefixes = append(m.prefixes, re)
			}
		}
	}
	return m
}

// Excluded reports whether path matches any exclusion pattern, either
// directly or via an ancestor directory.
func (m *ExcludeMatcher) Excluded(path string) bool {
	for _, re := range m.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	if len(m.prefixes) == 0 {
		return false
	}

	for dir := path; ; {
		for _, re := range m.prefixes {
			if re.MatchString(dir) {
				return true
			}
		}
		parent := parentDir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}

func parentDir(p string) string {
	i := strings.LastIndexByte(p, '/')
	switch {
	case i < 0:
		return p
	case i == 0:
		if p == "/" {
			return p
		}
		return "/"
	default:
		return p[:i]
	}
}

// compileGlob turns a shell glob into an anchored regexp. Unlike
// filepath.Match, '*' and '?' here match across path separators.
func compileGlob(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
