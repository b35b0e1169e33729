package match

import (
	"regexp"
	"strings"
	"testing"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"github__create_issue", "github__*", true},
		{"memory__read_note", "github__*", false},
		{"github__create_issue", "*__create_issue", true},
		{"anything", "*", true},
		{"", "*", true},
		{"", "", true},
		{"x", "", false},
		{"a.b", "a.b", true},
		{"aXb", "a.b", false}, // "." in pattern is literal, not regex any-char
		{"a*b", "a\\*b", false},
	}
	for _, c := range cases {
		if got := Matches(c.name, c.pattern); got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.name, c.pattern, got, c.want)
		}
	}
}

func TestMatches_EquivalentToAnchoredRegexEscape(t *testing.T) {
	names := []string{"github__create_issue", "memory__read_note", "", "a", "aaa"}
	patterns := []string{"*", "", "github__*", "*__read_note", "a*a", "x"}

	for _, p := range patterns {
		var sb strings.Builder
		sb.WriteString("^")
		for _, part := range strings.Split(p, "*") {
			sb.WriteString(regexp.QuoteMeta(part))
			sb.WriteString(".*")
		}
		// The expected regex is the escaped pattern with each escaped "*"
		// replaced by ".*", anchored at both ends (the wildcard replacement
		// called out in spec.md §8); sb above is not used for it.
		want := "^" + strings.ReplaceAll(regexp.QuoteMeta(p), regexp.QuoteMeta("*"), ".*") + "$"
		re := regexp.MustCompile(want)

		for _, n := range names {
			if got, expected := Matches(n, p), re.MatchString(n); got != expected {
				t.Errorf("Matches(%q,%q)=%v, regex equivalent=%v", n, p, got, expected)
			}
		}
	}
}

func TestAnyMatches(t *testing.T) {
	if AnyMatches("github__create_issue", nil) {
		t.Error("AnyMatches with nil patterns should be false")
	}
	if !AnyMatches("github__create_issue", []string{"memory__*", "github__*"}) {
		t.Error("expected a match against github__*")
	}
	if AnyMatches("github__create_issue", []string{"memory__*"}) {
		t.Error("expected no match")
	}
}
