package pattern_test

import (
	"testing"

	"pidmr/internal/pattern"
)

func TestCompileRejectsMalformedExpression(t *testing.T) {
	cases := []string{
		"ark:/[",
		"10\\.\\d{4,9(/.*",
		"(?P<broken",
	}
	for _, expr := range cases {
		if _, err := pattern.Compile(expr); err == nil {
			t.Errorf("Compile(%q): expected error", expr)
		}
	}
}

func TestMatchClassifiesInput(t *testing.T) {
	cases := []struct {
		name  string
		expr  string
		input string
		want  pattern.Verdict
	}{
		{"ark full match", `ark:/\d{5}/.*`, "ark:/12345/xyz", pattern.Matched},
		{"ark partial scheme", `ark:/\d{5}/.*`, "ark:/123", pattern.Partial},
		{"ark bare prefix", `ark:/\d{5}/.*`, "ark", pattern.Partial},
		{"ark wrong digit", `ark:/\d{5}/.*`, "ark:/12a45/xyz", pattern.NoMatch},
		{"doi full match", `10\.\d{4,9}/.*`, "10.1234/abc", pattern.Matched},
		{"doi partial", `10\.\d{4,9}/.*`, "10.12", pattern.Partial},
		{"unrelated input", `10\.\d{4,9}/.*`, "not-an-id", pattern.NoMatch},
		{"trailing garbage", `abc`, "abcd", pattern.NoMatch},
		{"alternation partial", `abc|abd`, "ab", pattern.Partial},
		{"alternation match", `abc|abd`, "abd", pattern.Matched},
		{"optional suffix matches early", `ab(cd)?`, "ab", pattern.Matched},
		{"anchored end", `ab\z`, "ab", pattern.Matched},
		{"empty input against nonempty pattern", `abc`, "", pattern.Partial},
		{"empty input against empty pattern", `a?`, "", pattern.Matched},
		{"unicode class", `\p{L}+`, "αβγ", pattern.Matched},
		{"unicode partial", `\p{L}+\d`, "αβγ", pattern.Partial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := pattern.Compile(tc.expr)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tc.expr, err)
			}
			if got := m.Match(tc.input); got != tc.want {
				t.Fatalf("Match(%q) against %q = %v, want %v", tc.input, tc.expr, got, tc.want)
			}
		})
	}
}

func TestMatchesIsFullMatchOnly(t *testing.T) {
	m, err := pattern.Compile(`hdl:\d+/.+`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !m.Matches("hdl:11500/xyz") {
		t.Fatal("expected full match")
	}
	if m.Matches("hdl:11500/") {
		t.Fatal("prefix must not count as a full match")
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	m, err := pattern.Compile(`urn:nbn:[a-z]{2}.*`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	first := m.Match("urn:nbn:de")
	for i := 0; i < 10; i++ {
		if got := m.Match("urn:nbn:de"); got != first {
			t.Fatalf("verdict changed between calls: %v then %v", first, got)
		}
	}
}
