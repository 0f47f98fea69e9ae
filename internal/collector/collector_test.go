package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"trendstream/internal/bus"
	"trendstream/internal/domain"
	"trendstream/internal/logging"
)

type staticSource struct {
	name string
	msgs []domain.Message
	err  error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(context.Context) ([]domain.Message, error) {
	return s.msgs, s.err
}

func collectLinks(t *testing.T, b *bus.Memory) *[]string {
	t.Helper()

	var links []string
	if err := b.Subscribe(context.Background(), "capture", func(_ context.Context, msg domain.Message) error {
		links = append(links, msg.Link)
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return &links
}

func TestRunnerPublishesAndDedupes(t *testing.T) {
	t.Parallel()

	b := bus.NewMemory()
	links := collectLinks(t, b)

	src := &staticSource{name: "test", msgs: []domain.Message{
		{Title: "One", Link: "https://x/1", Source: "test"},
		{Title: "Two", Link: "https://x/2", Source: "test"},
	}}
	r := NewRunner(src, b, time.Minute, logging.Discard(), nil)

	ctx := context.Background()
	r.tick(ctx)
	r.tick(ctx) // same items again: local dedupe must suppress them

	if len(*links) != 2 {
		t.Fatalf("expected 2 published messages, got %d: %v", len(*links), *links)
	}
}

func TestRunnerFiltersSpam(t *testing.T) {
	t.Parallel()

	b := bus.NewMemory()
	links := collectLinks(t, b)

	src := &staticSource{name: "test", msgs: []domain.Message{
		{Title: "Best Online Casino", Link: "https://spam/1", Source: "test"},
		{Title: "Go 1.25 released", Link: "https://x/1", Source: "test"},
	}}
	r := NewRunner(src, b, time.Minute, logging.Discard(), nil)

	r.tick(context.Background())

	if len(*links) != 1 || (*links)[0] != "https://x/1" {
		t.Fatalf("expected only the clean item, got %v", *links)
	}
}

func TestRunnerTickSurvivesFetchError(t *testing.T) {
	t.Parallel()

	b := bus.NewMemory()
	links := collectLinks(t, b)

	src := &staticSource{name: "test", err: fmt.Errorf("upstream down")}
	r := NewRunner(src, b, time.Minute, logging.Discard(), nil)

	ctx := context.Background()
	r.tick(ctx)

	src.err = nil
	src.msgs = []domain.Message{{Title: "Back", Link: "https://x/1", Source: "test"}}
	r.tick(ctx)

	if len(*links) != 1 {
		t.Fatalf("expected recovery on next tick, got %v", *links)
	}
}

func TestRunnerSkipsIncompleteMessages(t *testing.T) {
	t.Parallel()

	b := bus.NewMemory()
	links := collectLinks(t, b)

	src := &staticSource{name: "test", msgs: []domain.Message{
		{Title: "", Link: "https://x/1", Source: "test"},
		{Title: "No link", Link: "", Source: "test"},
	}}
	r := NewRunner(src, b, time.Minute, logging.Discard(), nil)

	r.tick(context.Background())

	if len(*links) != 0 {
		t.Fatalf("expected nothing published, got %v", *links)
	}
}

func TestSeenSetClearsAtCap(t *testing.T) {
	t.Parallel()

	b := bus.NewMemory()
	r := NewRunner(&staticSource{name: "test"}, b, time.Minute, logging.Discard(), nil)

	for i := 0; i < maxSeenLinks; i++ {
		r.markSeen(fmt.Sprintf("https://x/%d", i))
	}
	if len(r.seen) != maxSeenLinks {
		t.Fatalf("expected full set, got %d", len(r.seen))
	}

	r.markSeen("https://x/overflow")
	if len(r.seen) != 1 {
		t.Fatalf("expected cleared set with one entry, got %d", len(r.seen))
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	for _, name := range []string{"hackernews", "rss", "lobsters", "geeknews"} {
		if _, err := reg.Resolve(name); err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
	}

	if _, err := reg.Resolve("unknown"); err == nil {
		t.Fatal("expected error for unknown collector")
	}
}
