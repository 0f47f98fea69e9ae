package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"trendstream/internal/config"
	"trendstream/internal/domain"
	"trendstream/internal/htmlutil"
)

// GeekNews scrapes the news.hada.io topic listing. The listing carries no
// machine-readable publication date, so items are stamped with fetch time.
type GeekNews struct {
	name    string
	baseURL string
	keyword string
	client  *http.Client
}

var _ Source = (*GeekNews)(nil)

// NewGeekNews builds the source from config.
func NewGeekNews(cfg config.SourceConfig, client *http.Client) Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &GeekNews{
		name:    cfg.Name,
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		keyword: cfg.Keyword,
		client:  client,
	}
}

// Name identifies the source in logs and on published messages.
func (g *GeekNews) Name() string {
	return g.name
}

// Fetch scrapes the front-page topic rows.
func (g *GeekNews) Fetch(ctx context.Context) ([]domain.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "trendstream/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geeknews returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	now := time.Now().UTC().Format(domain.WireDateFormat)

	var msgs []domain.Message
	doc.Find("div.topic_row").Each(func(_ int, row *goquery.Selection) {
		titleLink := row.Find("div.topictitle a").First()
		href, ok := titleLink.Attr("href")
		if !ok {
			return
		}

		title := strings.TrimSpace(titleLink.Text())
		if title == "" {
			return
		}

		if !strings.HasPrefix(href, "http") {
			href = g.baseURL + "/" + strings.TrimPrefix(href, "/")
		}

		desc := strings.TrimSpace(row.Find("div.topicdesc").First().Text())

		msgs = append(msgs, domain.Message{
			Title:             htmlutil.Clean(title),
			Link:              href,
			Description:       htmlutil.Truncate(htmlutil.Clean(desc), 500),
			Source:            g.name,
			Category:          domain.CategoryCommunity,
			PublishDateRaw:    now,
			CollectionKeyword: g.keyword,
		})
	})

	return msgs, nil
}
