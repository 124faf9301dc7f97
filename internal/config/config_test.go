package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"featurelens/internal/content"
	"featurelens/internal/domain"
	"featurelens/internal/eventbus"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 1_000_000, cfg.Search.ChunkSize)
	assert.Equal(t, 3, cfg.Search.MinQueryLength)
	assert.Equal(t, 5, cfg.Search.IndexPadding)
	assert.Equal(t, "Feature Content", cfg.View.Title)
	assert.Equal(t, content.ModeImage, cfg.Mode())

	timeout, err := cfg.ChunkTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[search]
max_results = 10
chunk_timeout = ""

[view]
mode = "text"
`))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 1_000_000, cfg.Search.ChunkSize, "unset keys keep defaults")
	assert.Equal(t, content.ModeText, cfg.Mode())
	assert.Equal(t, "featurelens.log", cfg.Log.File)

	opts := cfg.SearchOptions()
	assert.Equal(t, 10, opts.MaxResults)
	assert.Zero(t, opts.ChunkTimeout)
	assert.Equal(t, 256, opts.CacheSize)

	sel := cfg.SelectionOptions()
	assert.Equal(t, 3, sel.MinQueryLength)
	assert.Equal(t, content.ModeText, sel.Mode)
}

func TestIndexPaddingOption(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.SearchOptions().IndexPadding)

	cfg.Search.IndexPadding = 0
	require.NoError(t, cfg.Validate())
	assert.Negative(t, cfg.SearchOptions().IndexPadding, "zero in the file means no padding")

	cfg.Search.IndexPadding = 20
	assert.Equal(t, 20, cfg.SearchOptions().IndexPadding)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"zero max results", "[search]\nmax_results = 0"},
		{"negative chunk size", "[search]\nchunk_size = -1"},
		{"bad timeout", "[search]\nchunk_timeout = \"soon\""},
		{"negative timeout", "[search]\nchunk_timeout = \"-1s\""},
		{"unknown mode", "[view]\nmode = \"video\""},
		{"unknown level", "[log]\nlevel = \"chatty\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseReportsSyntaxPosition(t *testing.T) {
	_, err := Parse([]byte("[search\nmax_results = 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line ")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cs := NewConfigServiceAt(path, nil)

	cfg := DefaultConfig()
	cfg.Search.MaxResults = 7
	cfg.View.Mode = "text"
	cfg.Session.Fixture = "/data/hg38.yaml"
	require.NoError(t, cs.Save(cfg))

	loaded, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cs := NewConfigServiceAt(path, nil)

	cfg := DefaultConfig()
	cfg.Search.ChunkSize = 0
	require.ErrorIs(t, cs.Save(cfg), ErrInvalid)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing written")
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cs := NewConfigServiceAt(filepath.Join(t.TempDir(), FileName), nil)

	cfg, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromPathMissingFile(t *testing.T) {
	cs := NewConfigServiceAt("", nil)
	_, err := cs.LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestEventsArePublished(t *testing.T) {
	bus := eventbus.New(nil)
	defer bus.Close()

	got := make(chan eventbus.DomainEvent, 4)
	bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) { got <- e })
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) { got <- e })

	path := filepath.Join(t.TempDir(), FileName)
	cs := NewConfigServiceAt(path, bus)
	require.NoError(t, cs.Save(DefaultConfig()))
	_, err := cs.Load()
	require.NoError(t, err)

	seen := map[eventbus.EventType]domain.DomainEvent{}
	for len(seen) < 2 {
		select {
		case e := <-got:
			seen[e.Type()] = e
		case <-time.After(2 * time.Second):
			t.Fatalf("only saw %d events", len(seen))
		}
	}
	assert.Equal(t, domain.ConfigSavedEvent{Path: path}, seen[eventbus.EventConfigSaved])
	assert.Equal(t, domain.ConfigLoadedEvent{Path: path}, seen[eventbus.EventConfigLoaded])
}
