// Package search resolves a free-text query against one track of one
// assembly. A text index is consulted first; when it yields nothing the
// assembly is scanned region by region in fixed-size chunks.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"featurelens/internal/domain"
	"featurelens/internal/session"
)

const (
	DefaultMaxResults   = 5
	DefaultChunkSize    = 1_000_000
	DefaultIndexPadding = 5
)

var (
	ErrNoAssembly = errors.New("no assembly selected")
	ErrNoTrack    = errors.New("no track selected")
	ErrNoAdapter  = errors.New("track has no adapter type")
)

// Tier names the strategy that produced an Outcome
type Tier int

const (
	TierIndex Tier = iota
	TierRange
)

func (t Tier) String() string {
	if t == TierIndex {
		return "index"
	}
	return "range"
}

// Options tunes a Searcher. Zero values select the defaults.
type Options struct {
	MaxResults   int
	ChunkSize    int
	IndexPadding int // bp added on each side of an index hit; negative disables
	ChunkTimeout time.Duration // per retrieval call; 0 disables
	CacheSize    int           // chunk responses kept; 0 disables
	Logger       *zap.Logger
}

// Request describes one search
type Request struct {
	Query        string
	AssemblyName string
	TrackID      string
	// ContentExtractor, when set, is merged into every result
	ContentExtractor func(domain.Feature) domain.FeatureContent
}

// Outcome is the result of the two-tier pipeline
type Outcome struct {
	Tier    Tier
	Results []domain.SearchResult
}

// Searcher runs searches against a session. It keeps no per-search state.
type Searcher struct {
	session session.Context
	opts    Options
	cache   *lru.Cache[string, []domain.Feature]
	logger  *zap.Logger
}

// New creates a Searcher over s
func New(s session.Context, opts Options) *Searcher {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	switch {
	case opts.IndexPadding == 0:
		opts.IndexPadding = DefaultIndexPadding
	case opts.IndexPadding < 0:
		opts.IndexPadding = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	srch := &Searcher{
		session: s,
		opts:    opts,
		logger:  logger.Named("search"),
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []domain.Feature](opts.CacheSize)
		if err != nil {
			srch.logger.Warn("chunk cache disabled", zap.Error(err))
		} else {
			srch.cache = cache
		}
	}
	return srch
}

// Search resolves req. An error is returned only when the search as a whole
// cannot run; failures of single chunks or index hits are logged and skipped.
func (s *Searcher) Search(ctx context.Context, req Request) (Outcome, error) {
	if s.session == nil {
		return Outcome{}, session.ErrNoSession
	}
	if req.AssemblyName == "" {
		return Outcome{}, ErrNoAssembly
	}
	if req.TrackID == "" {
		return Outcome{}, ErrNoTrack
	}

	asm, err := s.session.ResolveAssembly(ctx, req.AssemblyName)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve assembly %s: %w", req.AssemblyName, err)
	}
	track, err := s.session.ResolveTrack(ctx, req.TrackID)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve track %s: %w", req.TrackID, err)
	}
	if track.Adapter.Type == "" {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNoAdapter, req.TrackID)
	}

	query := strings.TrimSpace(req.Query)
	log := s.logger.With(
		zap.String("query", query),
		zap.String("assembly", asm.Name),
		zap.String("track", track.TrackID))

	if results := s.indexTier(ctx, log, asm, track, query, req.ContentExtractor); len(results) > 0 {
		log.Debug("text index answered", zap.Int("results", len(results)))
		return Outcome{Tier: TierIndex, Results: results}, nil
	}

	results, err := s.rangeTier(ctx, log, asm, track, query, req.ContentExtractor)
	if err != nil {
		return Outcome{}, err
	}
	log.Debug("range scan finished", zap.Int("results", len(results)))
	return Outcome{Tier: TierRange, Results: results}, nil
}

// indexTier looks the query up in the track's text index and re-fetches
// each hit. Returns nil when the index is unavailable or yields nothing.
func (s *Searcher) indexTier(ctx context.Context, log *zap.Logger, asm domain.Assembly, track domain.Track,
	query string, extractor func(domain.Feature) domain.FeatureContent) []domain.SearchResult {
	if !track.Adapter.TextSearch {
		return nil
	}
	idx, ok := s.session.(session.TextIndex)
	if !ok {
		return nil
	}

	matches, err := idx.SearchIndex(ctx, track, asm.Name, query, s.opts.MaxResults)
	if err != nil {
		log.Warn("text index lookup failed, falling back to range scan", zap.Error(err))
		return nil
	}
	if len(matches) == 0 {
		return nil
	}

	c := newCollector(s.opts.MaxResults, track.TrackID, extractor)
	for _, m := range matches {
		if c.full() {
			break
		}
		if m.RefName == "" {
			log.Debug("index match without reference name skipped", zap.String("label", m.Label))
			continue
		}
		start := m.Start - s.opts.IndexPadding
		if start < 0 {
			start = 0
		}
		region := domain.Region{RefName: m.RefName, Start: start, End: m.End + s.opts.IndexPadding}

		// The index is trusted; hits are not re-filtered against the query.
		hits, err := s.scan(ctx, asm.Name, track, region, func(domain.Feature) bool { return true }, c)
		if err != nil {
			log.Warn("index match fetch failed", zap.Stringer("region", region), zap.Error(err))
			continue
		}
		for _, r := range hits {
			c.add(r.result, r.owner)
		}
	}
	return c.results
}

// rangeTier scans every region in declaration order, one chunk per request,
// stopping once the cap is reached
func (s *Searcher) rangeTier(ctx context.Context, log *zap.Logger, asm domain.Assembly, track domain.Track,
	query string, extractor func(domain.Feature) domain.FeatureContent) ([]domain.SearchResult, error) {
	c := newCollector(s.opts.MaxResults, track.TrackID, extractor)
	match := func(f domain.Feature) bool { return Matches(f, query) }

	for _, region := range asm.Regions {
		if c.full() {
			break
		}
		for start := region.Start; start < region.End; start += s.opts.ChunkSize {
			if c.full() {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			end := start + s.opts.ChunkSize
			if end > region.End {
				end = region.End
			}
			chunk := domain.Region{RefName: region.RefName, Start: start, End: end}

			hits, err := s.scan(ctx, asm.Name, track, chunk, match, c)
			if err != nil {
				log.Warn("chunk query failed", zap.Stringer("chunk", chunk), zap.Error(err))
				continue
			}
			for _, r := range hits {
				c.add(r.result, r.owner)
			}
		}
	}
	return c.results, nil
}

type hit struct {
	result domain.SearchResult
	owner  string
}

// scan fetches one region and shapes every accepted feature. A panic while
// reading features discards the whole region.
func (s *Searcher) scan(ctx context.Context, assemblyName string, track domain.Track, region domain.Region,
	accept func(domain.Feature) bool, c *collector) (out []hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("reading features of %s: %v", region, r)
		}
	}()

	feats, err := s.fetch(ctx, assemblyName, track, region)
	if err != nil {
		return nil, err
	}
	for _, f := range feats {
		if f == nil || !accept(f) {
			continue
		}
		out = append(out, hit{result: c.shape(f, region), owner: ownKey(f)})
	}
	return out, nil
}

// fetch issues one CoreGetFeatures call for region, consulting the chunk cache
func (s *Searcher) fetch(ctx context.Context, assemblyName string, track domain.Track, region domain.Region) ([]domain.Feature, error) {
	key := strings.Join([]string{s.session.ID(), track.TrackID, track.Adapter.Type, assemblyName, region.String()}, "|")
	if s.cache != nil {
		if feats, ok := s.cache.Get(key); ok {
			return feats, nil
		}
	}

	callCtx := ctx
	if s.opts.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.ChunkTimeout)
		defer cancel()
	}

	feats, err := s.session.CallFeatureService(callCtx, session.MethodGetFeatures, session.FeatureRequest{
		SessionID: s.session.ID(),
		Regions: []session.RequestRegion{{
			RefName:      region.RefName,
			Start:        region.Start,
			End:          region.End,
			AssemblyName: assemblyName,
		}},
		AdapterConfig: track.Adapter,
		TrackID:       track.TrackID,
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, feats)
	}
	return feats, nil
}
