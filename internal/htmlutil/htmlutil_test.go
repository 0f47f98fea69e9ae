package htmlutil

import "testing"

func TestClean(t *testing.T) {
	t.Parallel()

	got := Clean(`<p>Kubernetes &amp; <b>Go</b>:   the &quot;easy&quot; way</p>`)
	want := `Kubernetes & Go: the "easy" way`
	if got != want {
		t.Fatalf("Clean = %q, want %q", got, want)
	}
}

func TestCleanEmpty(t *testing.T) {
	t.Parallel()

	if got := Clean("   \n\t "); got != "" {
		t.Fatalf("Clean(blank) = %q, want empty", got)
	}
}

func TestDecodeEntitiesNumeric(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"a &#38; b", "a & b"},
		{"x &#x26; y", "x & y"},
		{"caf&#233;", "café"},
		{"&#99999999999;", "&#99999999999;"}, // out of range, kept as-is
	}

	for _, tc := range cases {
		if got := DecodeEntities(tc.in); got != tc.want {
			t.Fatalf("DecodeEntities(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeEntitiesCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	if got := DecodeEntities("a\n\n  b\tc"); got != "a b c" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("short input should be untouched, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	// rune-aware: must not split multi-byte characters
	if got := Truncate("개발자뉴스", 2); got != "개발..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
