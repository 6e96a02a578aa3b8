package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/crossref"
	"github.com/glabrego/spacedeck/internal/feeds"
	"github.com/glabrego/spacedeck/internal/logging"
	"github.com/glabrego/spacedeck/internal/nasa"
)

const (
	RoverPhotoLimit = 6
	PaperLimit      = 8
)

type NASAClient interface {
	PictureOfDay(ctx context.Context) (nasa.APOD, error)
	RoverPhotos(ctx context.Context) ([]nasa.Photo, error)
}

type FeedClient interface {
	Fetch(ctx context.Context, src feeds.Source) ([]content.DisplayItem, error)
}

type PaperClient interface {
	SearchWorks(ctx context.Context, query string, rows int) ([]crossref.Work, error)
}

type AssistantClient interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type Repository interface {
	LoadUIPreferences(ctx context.Context) (UIPreferences, error)
	SaveUIPreferences(ctx context.Context, prefs UIPreferences) error
}

// UIPreferences survive between runs. The start view and the card filter are
// deliberately absent: each run starts on home with no filter.
type UIPreferences struct {
	PaperQuery string
}

// SourceResult is the outcome of one adapter call in an aggregation pass:
// either Items or Err is meaningful.
type SourceResult struct {
	Name  string
	Items []content.DisplayItem
	Err   error
}

func (r SourceResult) OK() bool {
	return r.Err == nil
}

// PaperList is the outcome of one paper search. Failed results carry the
// cause in Err; callers render a placeholder instead of propagating it.
type PaperList struct {
	Query  string
	Papers []crossref.Paper
	Failed bool
	Err    error
}

type Service struct {
	nasa      NASAClient
	feeds     FeedClient
	feedSrcs  []feeds.Source
	papers    PaperClient
	assistant AssistantClient
	repo      Repository
	logger    *log.Logger
}

type Option func(*Service)

func WithFeeds(client FeedClient, sources []feeds.Source) Option {
	return func(s *Service) {
		s.feeds = client
		s.feedSrcs = append([]feeds.Source(nil), sources...)
	}
}

func WithRepository(repo Repository) Option {
	return func(s *Service) {
		s.repo = repo
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(nasaClient NASAClient, papers PaperClient, assistant AssistantClient, opts ...Option) *Service {
	s := &Service{
		nasa:      nasaClient,
		papers:    papers,
		assistant: assistant,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Aggregate runs one aggregation pass: every remote source is requested at
// once, failures are logged and dropped, and the merged set is filtered.
func (s *Service) Aggregate(ctx context.Context, filter content.Filter) []content.DisplayItem {
	results := s.FetchSources(ctx)
	for _, r := range results {
		if !r.OK() {
			s.logger.Warn("source fetch failed", "source", r.Name, "err", r.Err)
		}
	}
	return Merge(results, content.StaticEntries(), filter)
}

// FetchSources issues all configured source requests before awaiting any of
// them. Result order follows source order, not completion order.
func (s *Service) FetchSources(ctx context.Context) []SourceResult {
	type job struct {
		name string
		run  func(context.Context) ([]content.DisplayItem, error)
	}
	var jobs []job
	if s.nasa != nil {
		jobs = append(jobs,
			job{name: "apod", run: s.fetchPictureOfDay},
			job{name: "mars", run: s.fetchRoverPhotos},
		)
	}
	if s.feeds != nil {
		for _, src := range s.feedSrcs {
			jobs = append(jobs, job{name: "feed:" + src.Name, run: func(ctx context.Context) ([]content.DisplayItem, error) {
				return s.feeds.Fetch(ctx, src)
			}})
		}
	}

	results := make([]SourceResult, len(jobs))
	var g errgroup.Group
	for i, j := range jobs {
		g.Go(func() error {
			items, err := j.run(ctx)
			results[i] = SourceResult{Name: j.name, Items: items, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) fetchPictureOfDay(ctx context.Context) ([]content.DisplayItem, error) {
	apod, err := s.nasa.PictureOfDay(ctx)
	if err != nil {
		return nil, err
	}
	return []content.DisplayItem{apod.Item()}, nil
}

func (s *Service) fetchRoverPhotos(ctx context.Context) ([]content.DisplayItem, error) {
	photos, err := s.nasa.RoverPhotos(ctx)
	if err != nil {
		return nil, err
	}
	if len(photos) > RoverPhotoLimit {
		photos = photos[:RoverPhotoLimit]
	}
	items := make([]content.DisplayItem, 0, len(photos))
	for _, p := range photos {
		items = append(items, p.Item())
	}
	return items, nil
}

// Merge concatenates successful results in order, appends static entries
// last, and applies filter to everything.
func Merge(results []SourceResult, static []content.DisplayItem, filter content.Filter) []content.DisplayItem {
	merged := make([]content.DisplayItem, 0, len(static)+len(results)*RoverPhotoLimit)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		merged = append(merged, r.Items...)
	}
	merged = append(merged, static...)
	return content.Apply(merged, filter)
}

// LoadPapers searches Crossref and keeps at most PaperLimit results.
func (s *Service) LoadPapers(ctx context.Context, query string) PaperList {
	query = strings.TrimSpace(query)
	if query == "" {
		query = crossref.DefaultQuery
	}
	out := PaperList{Query: query}
	var works []crossref.Work
	err := errors.New("paper search is not configured")
	if s.papers != nil {
		works, err = s.papers.SearchWorks(ctx, query, PaperLimit)
	}
	if err != nil {
		s.logger.Error("paper search failed", "query", query, "err", err)
		out.Failed = true
		out.Err = err
		return out
	}
	if len(works) > PaperLimit {
		works = works[:PaperLimit]
	}
	out.Papers = make([]crossref.Paper, 0, len(works))
	for _, w := range works {
		out.Papers = append(out.Papers, w.Paper())
	}
	return out
}

// Ask relays one prompt to the assistant. Errors are returned so the caller
// can turn them into a chat message.
func (s *Service) Ask(ctx context.Context, prompt string) (string, error) {
	var answer string
	err := errors.New("assistant is not configured")
	if s.assistant != nil {
		answer, err = s.assistant.Ask(ctx, prompt)
	}
	if err != nil {
		s.logger.Error("assistant request failed", "err", err)
		return "", fmt.Errorf("ask assistant: %w", err)
	}
	return answer, nil
}

func (s *Service) LoadUIPreferences(ctx context.Context) (UIPreferences, error) {
	if s.repo == nil {
		return UIPreferences{}, nil
	}
	prefs, err := s.repo.LoadUIPreferences(ctx)
	if err != nil {
		return UIPreferences{}, fmt.Errorf("load ui preferences: %w", err)
	}
	return prefs, nil
}

func (s *Service) SaveUIPreferences(ctx context.Context, prefs UIPreferences) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.SaveUIPreferences(ctx, prefs); err != nil {
		return fmt.Errorf("save ui preferences: %w", err)
	}
	return nil
}
