package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/glabrego/spacedeck/internal/content"
)

const (
	explanationExcerpt = 220
	apodPageBase       = "https://apod.nasa.gov/apod/ap"
)

var ErrMalformed = errors.New("malformed response")

// APOD is the subset of the picture-of-the-day payload used by the app.
type APOD struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	Explanation string `json:"explanation"`
	Date        string `json:"date"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright"`
}

// Item maps the picture of the day onto a card.
func (a APOD) Item() content.DisplayItem {
	item := content.DisplayItem{
		Title:   strings.TrimSpace(a.Title),
		Source:  content.SourceNASA,
		Summary: content.Excerpt(a.Explanation, explanationExcerpt),
		Long:    strings.TrimSpace(a.Explanation),
		Link:    a.pageURL(),
	}
	if a.MediaType != "video" {
		item.Image = a.URL
	}
	if item.Link == "" {
		item.Link = a.URL
	}
	if c := strings.TrimSpace(a.Copyright); c != "" && item.Long != "" {
		item.Long += "\n\nCredit: " + c
	}
	return item
}

func (a APOD) pageURL() string {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(a.Date))
	if err != nil {
		return ""
	}
	return apodPageBase + d.Format("060102") + ".html"
}

// Photo is one Mars rover image record.
type Photo struct {
	ID        int64  `json:"id"`
	Sol       int    `json:"sol"`
	ImgSrc    string `json:"img_src"`
	EarthDate string `json:"earth_date"`
	Camera    struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"camera"`
	Rover struct {
		Name string `json:"name"`
	} `json:"rover"`
}

func (p Photo) Item() content.DisplayItem {
	return content.DisplayItem{
		Title:   fmt.Sprintf("Mars Rover: %s - %s", p.Rover.Name, p.Camera.FullName),
		Source:  content.SourceNASA,
		Image:   p.ImgSrc,
		Summary: fmt.Sprintf("Rover sol %d - %s", p.Sol, p.EarthDate),
		Link:    p.ImgSrc,
	}
}

// Endpoints are fully resolved request URLs; proxy and direct mode differ
// only in what these point at.
type Endpoints struct {
	PictureOfDay string
	RoverPhotos  string
}

type Client struct {
	endpoints Endpoints
	http      *http.Client
	limiter   *rate.Limiter
}

type Option func(*Client)

func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

func NewClient(endpoints Endpoints, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		endpoints: endpoints,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) PictureOfDay(ctx context.Context) (APOD, error) {
	var apod APOD
	if err := c.getJSON(ctx, c.endpoints.PictureOfDay, "picture of the day", &apod); err != nil {
		return APOD{}, err
	}
	if strings.TrimSpace(apod.Title) == "" {
		return APOD{}, fmt.Errorf("picture of the day: %w: missing title", ErrMalformed)
	}
	return apod, nil
}

// RoverPhotos accepts both the public envelope and the bare array a proxy
// returns.
func (c *Client) RoverPhotos(ctx context.Context) ([]Photo, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.endpoints.RoverPhotos, "rover photos", &raw); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var photos []Photo
		if err := json.Unmarshal(raw, &photos); err != nil {
			return nil, fmt.Errorf("decode rover photos response: %w", err)
		}
		return photos, nil
	}
	var envelope struct {
		Photos *[]Photo `json:"photos"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode rover photos response: %w", err)
	}
	if envelope.Photos == nil {
		return nil, fmt.Errorf("rover photos: %w: missing photos", ErrMalformed)
	}
	return *envelope.Photos, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, resource string, out any) error {
	if strings.TrimSpace(endpoint) == "" {
		return fmt.Errorf("%s endpoint is not configured", resource)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed with status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}
