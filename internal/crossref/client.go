package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/render/text"
)

const (
	DefaultBaseURL = "https://api.crossref.org"
	DefaultQuery   = "space"

	maxAuthors     = 3
	snippetExcerpt = 160
)

var ErrMalformed = errors.New("malformed response")

// Work is the subset of Crossref work metadata used by the app.
type Work struct {
	Title     []string `json:"title"`
	Subtitle  []string `json:"subtitle"`
	Abstract  string   `json:"abstract"`
	URL       string   `json:"URL"`
	DOI       string   `json:"DOI"`
	Author    []Author `json:"author"`
	Published *struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
}

type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// Paper is a display-ready search result row.
type Paper struct {
	Title   string
	Authors []string
	Year    int
	Snippet string
	Link    string
}

func (w Work) Paper() Paper {
	p := Paper{
		Title: "Untitled",
		Link:  strings.TrimSpace(w.URL),
	}
	if len(w.Title) > 0 && strings.TrimSpace(w.Title[0]) != "" {
		p.Title = strings.TrimSpace(w.Title[0])
	}
	for i, a := range w.Author {
		if i == maxAuthors {
			break
		}
		name := strings.TrimSpace(a.Family)
		if name == "" {
			name = strings.TrimSpace(a.Name)
		}
		p.Authors = append(p.Authors, name)
	}
	if w.Published != nil && len(w.Published.DateParts) > 0 && len(w.Published.DateParts[0]) > 0 {
		p.Year = w.Published.DateParts[0][0]
	}
	switch {
	case strings.TrimSpace(w.Abstract) != "":
		p.Snippet = content.Excerpt(text.Flatten(w.Abstract), snippetExcerpt)
	case len(w.Subtitle) > 0:
		p.Snippet = content.Excerpt(w.Subtitle[0], snippetExcerpt)
	default:
		p.Snippet = "..."
	}
	return p
}

// Byline joins authors and year the way list rows show them.
func (p Paper) Byline() string {
	authors := strings.Join(p.Authors, ", ")
	year := ""
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}
	return authors + " • " + year
}

type Client struct {
	baseURL string
	mailto  string
	http    *http.Client
}

func NewClient(baseURL, mailto string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		mailto:  strings.TrimSpace(mailto),
		http:    httpClient,
	}
}

// SearchWorks returns the raw works for query. A payload without
// message.items is reported as ErrMalformed.
func (c *Client) SearchWorks(ctx context.Context, query string, rows int) ([]Work, error) {
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	if rows < 1 {
		rows = 8
	}

	q := make(url.Values)
	q.Set("query", query)
	q.Set("rows", strconv.Itoa(rows))
	if c.mailto != "" {
		q.Set("mailto", c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/works?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search works request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search works failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Message *struct {
			Items []Work `json:"items"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search works response: %w", err)
	}
	if payload.Message == nil || payload.Message.Items == nil {
		return nil, fmt.Errorf("search works: %w: missing message.items", ErrMalformed)
	}
	return payload.Message.Items, nil
}
