package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/render/text"
)

const (
	summaryExcerpt = 220
	DefaultLimit   = 4
)

// Source is one configured agency news feed.
type Source struct {
	Name  string
	URL   string
	Tag   content.Source
	Limit int
}

type Client struct {
	parser *gofeed.Parser
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = httpClient
	return &Client{parser: p}
}

// Fetch returns the newest items of src as cards, capped at src.Limit.
func (c *Client) Fetch(ctx context.Context, src Source) ([]content.DisplayItem, error) {
	feed, err := c.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}

	limit := src.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	items := make([]content.DisplayItem, 0, min(limit, len(feed.Items)))
	for _, it := range feed.Items {
		if len(items) == limit {
			break
		}
		if it == nil || strings.TrimSpace(it.Title) == "" {
			continue
		}
		desc := it.Description
		if strings.TrimSpace(desc) == "" {
			desc = it.Content
		}
		long := text.Plain(desc)
		item := content.DisplayItem{
			Title:   strings.TrimSpace(it.Title),
			Source:  src.Tag,
			Summary: content.Excerpt(strings.Join(strings.Fields(long), " "), summaryExcerpt),
			Long:    long,
			Link:    strings.TrimSpace(it.Link),
		}
		if it.Image != nil {
			item.Image = it.Image.URL
		} else {
			for _, enc := range it.Enclosures {
				if enc != nil && strings.HasPrefix(enc.Type, "image/") {
					item.Image = enc.URL
					break
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}
