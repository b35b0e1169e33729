// Package match implements the glob-style pattern matcher used to filter
// and discover tools by name: literal characters plus a single wildcard,
// "*", which matches any (possibly empty) substring.
package match

import (
	"regexp"
	"strings"
	"sync"
)

// cache memoizes the compiled regexp for each pattern string since the same
// pattern (an entry in exposeTools/hideTools/exposeCoreTools) is evaluated
// against every tool name on every listTools/resolve call.
var (
	mu    sync.RWMutex
	cache = make(map[string]*regexp.Regexp)
)

// Matches reports whether name matches pattern. The pattern language is
// literal characters plus "*" (matches any substring, including empty);
// every other regex-significant character in pattern is treated literally.
// Matching is anchored at both ends and case-sensitive. An empty pattern
// matches only an empty name.
func Matches(name, pattern string) bool {
	return compile(pattern).MatchString(name)
}

// AnyMatches reports whether name matches at least one of patterns. A nil or
// empty patterns list matches nothing — callers that treat an absent pattern
// list as "match everything" must check that case themselves, since an
// absent include list and an empty include list mean different things in
// the filter semantics (spec.md §3).
func AnyMatches(name string, patterns []string) bool {
	for _, p := range patterns {
		if Matches(name, p) {
			return true
		}
	}
	return false
}

func compile(pattern string) *regexp.Regexp {
	mu.RLock()
	re, ok := cache[pattern]
	mu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(toRegexp(pattern))

	mu.Lock()
	cache[pattern] = re
	mu.Unlock()
	return re
}

// toRegexp converts a "*"-wildcard pattern into an anchored regexp source,
// escaping every other character so it is matched literally.
func toRegexp(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		if r == '*' {
			sb.WriteString(".*")
			continue
		}
		sb.WriteString(regexp.QuoteMeta(string(r)))
	}
	sb.WriteString("$")
	return sb.String()
}
