package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"featurelens/internal/content"
	"featurelens/internal/domain"
	"featurelens/internal/eventbus"
	"featurelens/internal/search"
	"featurelens/internal/selection"
)

// FileName is the name of the config file inside the config directory
const FileName = "config.toml"

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

// Config represents the application configuration
type Config struct {
	Version int             `toml:"version"`
	Search  SearchSettings  `toml:"search"`
	View    ViewSettings    `toml:"view"`
	Log     LogSettings     `toml:"log"`
	Session SessionSettings `toml:"session"`
}

// SearchSettings tunes the feature searcher
type SearchSettings struct {
	MaxResults     int    `toml:"max_results"`
	ChunkSize      int    `toml:"chunk_size"`
	MinQueryLength int    `toml:"min_query_length"`
	IndexPadding   int    `toml:"index_padding"` // bp on each side of an index hit; 0 disables
	ChunkTimeout   string `toml:"chunk_timeout"` // Go duration; empty disables
	CacheSize      int    `toml:"cache_size"`    // chunk cache entries; 0 disables
	ContentHints   bool   `toml:"content_hints"`
}

// ViewSettings controls the content panel
type ViewSettings struct {
	Title string `toml:"title"`
	Mode  string `toml:"mode"` // image or text
}

// LogSettings controls the log file
type LogSettings struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// SessionSettings points at the session fixture
type SessionSettings struct {
	Fixture string `toml:"fixture"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service backed by the user config directory
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return &configService{
		filePath: filepath.Join(configDir, "featurelens", FileName),
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	cs := NewConfigService().(*configService)
	cs.bus = bus
	return cs
}

// NewConfigServiceAt creates a config service for an explicit file path
func NewConfigServiceAt(path string, bus eventbus.EventBus) ConfigService {
	return &configService{bus: bus, filePath: path}
}

// Path returns the file Load and Save operate on
func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration file. A missing file yields the defaults.
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cs.publish(domain.ConfigLoadedEvent{Path: ""})
		return cfg, nil
	}

	cfg, err := cs.LoadFromPath(cs.filePath)
	if err != nil {
		return nil, err
	}
	cs.publish(domain.ConfigLoadedEvent{Path: cs.filePath})
	return cfg, nil
}

// Save writes the configuration file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	cs.publish(domain.ConfigSavedEvent{Path: cs.filePath})
	return nil
}

// LoadFromPath loads configuration from a specific path. Keys absent from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (cs *configService) publish(e domain.DomainEvent) {
	if cs.bus != nil {
		cs.bus.Publish(e)
	}
}

// Parse decodes TOML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchSettings{
			MaxResults:     search.DefaultMaxResults,
			ChunkSize:      search.DefaultChunkSize,
			MinQueryLength: selection.DefaultMinQueryLength,
			IndexPadding:   search.DefaultIndexPadding,
			ChunkTimeout:   "30s",
			CacheSize:      256,
		},
		View: ViewSettings{
			Title: "Feature Content",
			Mode:  content.ModeImage.String(),
		},
		Log: LogSettings{
			File:  "featurelens.log",
			Level: "info",
		},
		Session: SessionSettings{
			Fixture: "session.yaml",
		},
	}
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	switch {
	case c.Search.MaxResults <= 0:
		return fmt.Errorf("%w: search.max_results must be positive, got %d", ErrInvalid, c.Search.MaxResults)
	case c.Search.ChunkSize <= 0:
		return fmt.Errorf("%w: search.chunk_size must be positive, got %d", ErrInvalid, c.Search.ChunkSize)
	case c.Search.MinQueryLength <= 0:
		return fmt.Errorf("%w: search.min_query_length must be positive, got %d", ErrInvalid, c.Search.MinQueryLength)
	case c.Search.IndexPadding < 0:
		return fmt.Errorf("%w: search.index_padding must not be negative, got %d", ErrInvalid, c.Search.IndexPadding)
	case c.Search.CacheSize < 0:
		return fmt.Errorf("%w: search.cache_size must not be negative, got %d", ErrInvalid, c.Search.CacheSize)
	}
	if _, err := c.ChunkTimeout(); err != nil {
		return err
	}
	if _, err := content.ParseMode(c.View.Mode); err != nil {
		return fmt.Errorf("%w: view.mode: %v", ErrInvalid, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// ChunkTimeout parses search.chunk_timeout. Zero means no timeout.
func (c *Config) ChunkTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Search.ChunkTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Search.ChunkTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: search.chunk_timeout: %v", ErrInvalid, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: search.chunk_timeout must not be negative", ErrInvalid)
	}
	return d, nil
}

// Mode returns the configured content mode
func (c *Config) Mode() content.Mode {
	m, err := content.ParseMode(c.View.Mode)
	if err != nil {
		return content.ModeImage
	}
	return m
}

// SearchOptions converts the search settings
func (c *Config) SearchOptions() search.Options {
	timeout, _ := c.ChunkTimeout()
	return search.Options{
		MaxResults:   c.Search.MaxResults,
		ChunkSize:    c.Search.ChunkSize,
		IndexPadding: indexPadding(c.Search.IndexPadding),
		ChunkTimeout: timeout,
		CacheSize:    c.Search.CacheSize,
	}
}

// indexPadding maps the configured padding onto search.Options, where zero
// selects the default and a negative value means none
func indexPadding(bp int) int {
	if bp == 0 {
		return -1
	}
	return bp
}

// SelectionOptions converts the settings the state machine reads
func (c *Config) SelectionOptions() selection.Options {
	return selection.Options{
		MinQueryLength: c.Search.MinQueryLength,
		Mode:           c.Mode(),
		ContentHints:   c.Search.ContentHints,
	}
}
