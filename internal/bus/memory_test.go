package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendstream/internal/domain"
)

func TestMemoryFanOut(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	var storeGot, statsGot []string
	require.NoError(t, m.Subscribe(ctx, "news-group", func(_ context.Context, msg domain.Message) error {
		storeGot = append(storeGot, msg.Link)
		return nil
	}))
	require.NoError(t, m.Subscribe(ctx, "stats-group", func(_ context.Context, msg domain.Message) error {
		statsGot = append(statsGot, msg.Link)
		return nil
	}))

	require.NoError(t, m.Publish(ctx, domain.Message{Link: "https://x/1"}))
	require.NoError(t, m.Publish(ctx, domain.Message{Link: "https://x/2"}))

	assert.Equal(t, []string{"https://x/1", "https://x/2"}, storeGot)
	assert.Equal(t, []string{"https://x/1", "https://x/2"}, statsGot)
}

func TestMemoryDuplicateGroup(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	handler := func(context.Context, domain.Message) error { return nil }

	require.NoError(t, m.Subscribe(ctx, "news-group", handler))
	assert.Error(t, m.Subscribe(ctx, "news-group", handler))
}

func TestMemoryRedeliversOnce(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	calls := 0
	require.NoError(t, m.Subscribe(ctx, "news-group", func(context.Context, domain.Message) error {
		calls++
		return errors.New("transient")
	}))

	require.NoError(t, m.Publish(ctx, domain.Message{Link: "https://x/1"}))
	assert.Equal(t, 2, calls, "failed handler should see the message again")
}
