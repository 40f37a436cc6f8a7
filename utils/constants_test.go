package utils

import (
	"strings"
	"testing"
)

func TestIsPlausibleToken(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		token  string
		minLen int
		want   bool
	}{
		{"exact length", strings.Repeat("a", 100), 100, true},
		{"one short", strings.Repeat("a", 99), 100, false},
		{"padding does not count", "  " + strings.Repeat("a", 60) + strings.Repeat(" ", 60), 100, false},
		{"padded but long enough", "\t" + strings.Repeat("a", 100) + "\n", 100, true},
		{"default minimum", strings.Repeat("a", DefaultMinTokenLength), 0, true},
		{"blank", "   ", 1, false},
	}
	for _, tc := range cases {
		if got := IsPlausibleToken(tc.token, tc.minLen); got != tc.want {
			t.Errorf("%s: IsPlausibleToken = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTokenLengthCountsCodePoints(t *testing.T) {
	t.Parallel()
	if got := TokenLength(" héllo "); got != 5 {
		t.Fatalf("TokenLength = %d, want 5", got)
	}
	if got := NormalizeToken("\tabc \n"); got != "abc" {
		t.Fatalf("NormalizeToken = %q, want %q", got, "abc")
	}
}
