package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/glabrego/spacedeck/internal/app"
	"github.com/glabrego/spacedeck/internal/assistant"
	"github.com/glabrego/spacedeck/internal/config"
	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/crossref"
	"github.com/glabrego/spacedeck/internal/feeds"
	"github.com/glabrego/spacedeck/internal/logging"
	"github.com/glabrego/spacedeck/internal/nasa"
	"github.com/glabrego/spacedeck/internal/storage"
)

// session bundles everything a command needs once config is resolved.
type session struct {
	cfg       config.Config
	logger    *log.Logger
	logCloser io.Closer
	repo      *storage.Repository
	service   *app.Service
}

func openSession(ctx context.Context) (*session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.Open(cfg.LogPath, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	repo, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	sources, err := feedSources(cfg.Feeds)
	if err != nil {
		return nil, errors.Join(err, repo.Close(), closer.Close())
	}

	e := cfg.Endpoints()
	opts := []app.Option{
		app.WithFeeds(feeds.NewClient(nil), sources),
		app.WithLogger(logger),
	}
	if repo != nil {
		opts = append(opts, app.WithRepository(repo))
	}
	service := app.NewService(
		nasa.NewClient(nasa.Endpoints{PictureOfDay: e.PictureOfDay, RoverPhotos: e.RoverPhotos}, nil),
		crossref.NewClient(e.Crossref, cfg.CrossrefMailto, nil),
		assistant.NewClient(e.Assistant, nil),
		opts...,
	)

	return &session{cfg: cfg, logger: logger, logCloser: closer, repo: repo, service: service}, nil
}

func (r *session) Close() error {
	return errors.Join(r.repo.Close(), r.logCloser.Close())
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if flagDirect {
		cfg.Mode = config.ModeDirect
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("config error: %w", err)
		}
	}
	return cfg, nil
}

func feedSources(cfgFeeds []config.Feed) ([]feeds.Source, error) {
	out := make([]feeds.Source, 0, len(cfgFeeds))
	for _, f := range cfgFeeds {
		tag, err := content.ParseSource(f.Tag)
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", f.Name, err)
		}
		name := f.Name
		if name == "" {
			name = string(tag)
		}
		out = append(out, feeds.Source{Name: name, URL: f.URL, Tag: tag, Limit: f.Limit})
	}
	return out, nil
}
