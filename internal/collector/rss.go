package collector

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"trendstream/internal/config"
	"trendstream/internal/domain"
	"trendstream/internal/htmlutil"
)

// RSS collects entries from an RSS 2.0 feed (Dev.to and similar blog
// platforms). Items are classified as BLOG.
type RSS struct {
	name    string
	feedURL string
	keyword string
	client  *http.Client
}

var _ Source = (*RSS)(nil)

// NewRSS builds the source from config.
func NewRSS(cfg config.SourceConfig, client *http.Client) Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSS{
		name:    cfg.Name,
		feedURL: cfg.URL,
		keyword: cfg.Keyword,
		client:  client,
	}
}

// Name identifies the source in logs and on published messages.
func (r *RSS) Name() string {
	return r.name
}

type rssDoc struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Fetch downloads and parses the feed.
func (r *RSS) Fetch(ctx context.Context) ([]domain.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "trendstream/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	var doc rssDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	msgs := make([]domain.Message, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		msgs = append(msgs, domain.Message{
			Title:             htmlutil.Clean(item.Title),
			Link:              item.Link,
			Description:       htmlutil.Truncate(htmlutil.Clean(item.Description), 500),
			Source:            r.name,
			Category:          domain.CategoryBlog,
			PublishDateRaw:    normalizeRSSDate(item.PubDate),
			CollectionKeyword: r.keyword,
		})
	}

	return msgs, nil
}

// normalizeRSSDate re-formats common RSS date layouts to the wire format.
// Unparseable values fall back to the current time; the store consumer
// would substitute it anyway.
func normalizeRSSDate(raw string) string {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, domain.WireDateFormat} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(domain.WireDateFormat)
		}
	}
	return time.Now().UTC().Format(domain.WireDateFormat)
}
