package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/glabrego/spacedeck/internal/content"
	"github.com/glabrego/spacedeck/internal/crossref"
)

const (
	ModeDirect = "direct"
	ModeProxy  = "proxy"

	appName         = "spacedeck"
	defaultNASAKey  = "DEMO_KEY"
	defaultRover    = "curiosity"
	defaultSol      = 1000
	defaultLogLevel = "info"
	nasaAPIBase     = "https://api.nasa.gov"
)

// Config holds runtime settings for the CLI app.
type Config struct {
	Mode           string `yaml:"mode"`
	APIBase        string `yaml:"api_base"`
	NASAKey        string `yaml:"nasa_key"`
	Rover          string `yaml:"rover"`
	Sol            int    `yaml:"sol"`
	AssistantURL   string `yaml:"assistant_url"`
	CrossrefURL    string `yaml:"crossref_url"`
	CrossrefMailto string `yaml:"crossref_mailto"`
	Feeds          []Feed `yaml:"feeds"`
	DBPath         string `yaml:"db_path"`
	LogPath        string `yaml:"log_path"`
	LogLevel       string `yaml:"log_level"`
}

// Feed is an opt-in agency RSS/Atom source. None are configured by default,
// so an aggregation pass only calls the picture-of-day and rover endpoints.
// Example:
//
//	feeds:
//	  - name: ESA Space Science
//	    url: https://www.esa.int/rssfeed/Our_Activities/Space_Science
//	    tag: ESA
//	    limit: 4
type Feed struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Tag   string `yaml:"tag"`
	Limit int    `yaml:"limit"`
}

// Endpoints are the concrete URLs every adapter talks to once the mode has
// been resolved.
type Endpoints struct {
	PictureOfDay string
	RoverPhotos  string
	Assistant    string
	Crossref     string
}

func Default() Config {
	return Config{
		Mode:        ModeDirect,
		NASAKey:     defaultNASAKey,
		Rover:       defaultRover,
		Sol:         defaultSol,
		CrossrefURL: crossref.DefaultBaseURL,
		DBPath:      filepath.Join(xdg.DataHome, appName, appName+".db"),
		LogPath:     filepath.Join(xdg.StateHome, appName, appName+".log"),
		LogLevel:    defaultLogLevel,
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load reads the YAML file at path (DefaultPath when empty), applies
// environment overrides, and validates the result. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"SPACEDECK_MODE", &c.Mode},
		{"SPACEDECK_API_BASE", &c.APIBase},
		{"SPACEDECK_NASA_KEY", &c.NASAKey},
		{"SPACEDECK_ASSISTANT_URL", &c.AssistantURL},
		{"SPACEDECK_CROSSREF_URL", &c.CrossrefURL},
		{"SPACEDECK_CROSSREF_MAILTO", &c.CrossrefMailto},
		{"SPACEDECK_DB_PATH", &c.DBPath},
		{"SPACEDECK_LOG_PATH", &c.LogPath},
		{"SPACEDECK_LOG_LEVEL", &c.LogLevel},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok {
			*o.dst = strings.TrimSpace(v)
		}
	}
}

func (c *Config) fillDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDirect
	}
	if c.Rover == "" {
		c.Rover = defaultRover
	}
	if c.Sol <= 0 {
		c.Sol = defaultSol
	}
	if c.CrossrefURL == "" {
		c.CrossrefURL = crossref.DefaultBaseURL
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeDirect:
		if c.NASAKey == "" {
			return errors.New("nasa_key is required in direct mode")
		}
	case ModeProxy:
		if c.APIBase == "" {
			return errors.New("api_base is required in proxy mode")
		}
	default:
		return fmt.Errorf("mode must be proxy or direct: %s", c.Mode)
	}

	for name, raw := range map[string]string{
		"api_base":      c.APIBase,
		"assistant_url": c.AssistantURL,
		"crossref_url":  c.CrossrefURL,
	} {
		if raw == "" {
			continue
		}
		if err := validateBaseURL(name, raw); err != nil {
			return err
		}
	}

	for i, f := range c.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feeds[%d]: url is required", i)
		}
		if _, err := content.ParseSource(f.Tag); err != nil {
			return fmt.Errorf("feeds[%d]: %w", i, err)
		}
		if f.Limit < 0 {
			return fmt.Errorf("feeds[%d]: limit must not be negative", i)
		}
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL: %s", name, raw)
	}
	if strings.HasSuffix(raw, "/") {
		return fmt.Errorf("%s must not end with '/': %s", name, raw)
	}
	return nil
}

// Endpoints resolves the configured mode. In proxy mode the NASA key never
// leaves the proxy; in direct mode it is sent as a query parameter.
func (c Config) Endpoints() Endpoints {
	e := Endpoints{Crossref: c.CrossrefURL, Assistant: c.AssistantURL}
	if e.Assistant == "" && c.APIBase != "" {
		e.Assistant = c.APIBase + "/ai/query"
	}

	if c.Mode == ModeProxy {
		e.PictureOfDay = c.APIBase + "/nasa/apod"
		e.RoverPhotos = c.APIBase + "/nasa/mars"
		return e
	}

	key := url.QueryEscape(c.NASAKey)
	e.PictureOfDay = nasaAPIBase + "/planetary/apod?api_key=" + key
	e.RoverPhotos = fmt.Sprintf("%s/mars-photos/api/v1/rovers/%s/photos?sol=%d&api_key=%s",
		nasaAPIBase, url.PathEscape(c.Rover), c.Sol, key)
	return e
}
