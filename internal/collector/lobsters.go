package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trendstream/internal/config"
	"trendstream/internal/domain"
	"trendstream/internal/htmlutil"
)

// Lobsters collects the hottest stories from the lobste.rs JSON API.
type Lobsters struct {
	name    string
	apiURL  string
	keyword string
	client  *http.Client
}

var _ Source = (*Lobsters)(nil)

// NewLobsters builds the source from config.
func NewLobsters(cfg config.SourceConfig, client *http.Client) Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Lobsters{
		name:    cfg.Name,
		apiURL:  cfg.URL,
		keyword: cfg.Keyword,
		client:  client,
	}
}

// Name identifies the source in logs and on published messages.
func (l *Lobsters) Name() string {
	return l.name
}

type lobstersStory struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	CommentsURL string `json:"comments_url"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Fetch downloads the hottest list; text-only posts fall back to their
// comments URL as the canonical link.
func (l *Lobsters) Fetch(ctx context.Context) ([]domain.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "trendstream/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request stories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lobsters returned %s", resp.Status)
	}

	var stories []lobstersStory
	if err := json.NewDecoder(resp.Body).Decode(&stories); err != nil {
		return nil, fmt.Errorf("decode stories: %w", err)
	}

	msgs := make([]domain.Message, 0, len(stories))
	for _, story := range stories {
		link := story.URL
		if link == "" {
			link = story.CommentsURL
		}

		msgs = append(msgs, domain.Message{
			Title:             htmlutil.Clean(story.Title),
			Link:              link,
			Description:       htmlutil.Truncate(htmlutil.Clean(story.Description), 500),
			Source:            l.name,
			Category:          domain.CategoryCommunity,
			PublishDateRaw:    normalizeLobstersDate(story.CreatedAt),
			CollectionKeyword: l.keyword,
		})
	}

	return msgs, nil
}

func normalizeLobstersDate(raw string) string {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(domain.WireDateFormat)
	}
	return time.Now().UTC().Format(domain.WireDateFormat)
}
