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

// hnFetchCount caps how many of the newest story IDs each tick inspects.
const hnFetchCount = 50

// HackerNews collects new stories from the Firebase v0 API: one request for
// the newest story IDs, one per item for details. Ask/Show posts without an
// outbound URL are skipped.
type HackerNews struct {
	name    string
	baseURL string
	keyword string
	client  *http.Client
}

var _ Source = (*HackerNews)(nil)

// NewHackerNews builds the source from config.
func NewHackerNews(cfg config.SourceConfig, client *http.Client) Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HackerNews{
		name:    cfg.Name,
		baseURL: cfg.URL,
		keyword: cfg.Keyword,
		client:  client,
	}
}

// Name identifies the source in logs and on published messages.
func (h *HackerNews) Name() string {
	return h.name
}

type hnItem struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
	Time  int64  `json:"time"`
}

// Fetch lists the newest stories and normalizes each linkable one.
func (h *HackerNews) Fetch(ctx context.Context) ([]domain.Message, error) {
	var ids []int64
	if err := h.getJSON(ctx, h.baseURL+"/newstories.json", &ids); err != nil {
		return nil, fmt.Errorf("list new stories: %w", err)
	}

	if len(ids) > hnFetchCount {
		ids = ids[:hnFetchCount]
	}

	msgs := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		var item hnItem
		if err := h.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", h.baseURL, id), &item); err != nil {
			// one broken item must not sink the tick
			continue
		}

		if item.Type != "story" || item.URL == "" {
			continue
		}

		msgs = append(msgs, domain.Message{
			Title:             htmlutil.Clean(item.Title),
			Link:              item.URL,
			Description:       htmlutil.Truncate(htmlutil.Clean(item.Text), 500),
			Source:            h.name,
			Category:          domain.CategoryCommunity,
			PublishDateRaw:    time.Unix(item.Time, 0).UTC().Format(domain.WireDateFormat),
			CollectionKeyword: h.keyword,
		})
	}

	return msgs, nil
}

func (h *HackerNews) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "trendstream/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	return nil
}
