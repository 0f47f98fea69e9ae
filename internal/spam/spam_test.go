package spam

import "testing"

func TestIsSpamKeyword(t *testing.T) {
	t.Parallel()

	if !IsSpam("Best Online Casino bonuses", "") {
		t.Fatal("expected casino keyword to be flagged")
	}
	if !IsSpam("", "무료 꽁머니 지급") {
		t.Fatal("expected korean gambling keyword to be flagged")
	}
}

func TestIsSpamPattern(t *testing.T) {
	t.Parallel()

	if !IsSpam("contact us", "QQ: 123456789") {
		t.Fatal("expected QQ contact pattern to be flagged")
	}
	if !IsSpam("deals", "visit 88888888.com now") {
		t.Fatal("expected numeric domain pattern to be flagged")
	}
}

func TestIsSpamCleanText(t *testing.T) {
	t.Parallel()

	if IsSpam("Go 1.25 released", "The Go team announced the latest release with improved GC.") {
		t.Fatal("legitimate news flagged as spam")
	}
}

func TestReason(t *testing.T) {
	t.Parallel()

	if got := Reason("gambling tips", ""); got != "keyword: gambling" {
		t.Fatalf("unexpected reason: %q", got)
	}
	if got := Reason("Go 1.25 released", ""); got != "" {
		t.Fatalf("expected empty reason, got %q", got)
	}
}
