// Package selection owns the cascading assembly → track → feature selection
// of one view and mediates between the view and the feature searcher.
//
// Every action produces a new State snapshot. Searches are never cancelled;
// instead each upstream change bumps a generation counter and a search whose
// generation is no longer current has its results dropped on arrival.
package selection

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"featurelens/internal/content"
	"featurelens/internal/domain"
	"featurelens/internal/eventbus"
	"featurelens/internal/search"
	"featurelens/internal/session"
)

// DefaultMinQueryLength is the shortest trimmed term that triggers a search
const DefaultMinQueryLength = 3

// Searcher runs feature searches
type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Outcome, error)
}

// ChangedEvent carries the snapshot produced by a transition
type ChangedEvent struct {
	State State
}

func (e ChangedEvent) Type() domain.EventType { return domain.EventStateChanged }

// Options configures a Machine
type Options struct {
	MinQueryLength int
	Mode           content.Mode
	// ContentHints attaches single-feature content hints to every search result
	ContentHints bool
	Logger       *zap.Logger
}

// Machine is the selection state machine. It is safe for concurrent use.
type Machine struct {
	mu         sync.Mutex
	state      State
	generation uint64

	session    session.Context
	searcher   Searcher
	aggregator *content.Aggregator
	bus        eventbus.EventBus
	opts       Options
	logger     *zap.Logger
}

// New creates a Machine. bus may be nil.
func New(sess session.Context, searcher Searcher, aggregator *content.Aggregator, bus eventbus.EventBus, opts Options) *Machine {
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if aggregator == nil {
		aggregator = content.NewAggregator(logger)
	}
	return &Machine{
		state:      State{Mode: opts.Mode},
		session:    sess,
		searcher:   searcher,
		aggregator: aggregator,
		bus:        bus,
		opts:       opts,
		logger:     logger.Named("selection"),
	}
}

// Snapshot returns the current state
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// commit installs next and returns the events to publish. Callers hold mu.
func (m *Machine) commit(next State) ChangedEvent {
	next.Version = m.state.Version + 1
	m.state = next
	return ChangedEvent{State: next}
}

func (m *Machine) publish(events ...domain.DomainEvent) {
	if m.bus == nil {
		return
	}
	for _, e := range events {
		m.bus.Publish(e)
	}
}

// SetSelectedAssembly selects an assembly and clears everything downstream
func (m *Machine) SetSelectedAssembly(id string) {
	m.mu.Lock()
	m.generation++
	next := State{Mode: m.state.Mode, SelectedAssemblyID: id}
	changed := m.commit(next)
	m.mu.Unlock()

	m.logger.Debug("assembly selected", zap.String("assembly", id))
	m.publish(domain.AssemblySelectedEvent{AssemblyName: id}, changed)
}

// LoadTracks lists the compatible tracks of the selected assembly. It needs a
// session that implements session.Catalog; otherwise it does nothing.
func (m *Machine) LoadTracks(ctx context.Context) {
	catalog, ok := m.session.(session.Catalog)
	if !ok {
		return
	}

	m.mu.Lock()
	assembly := m.state.SelectedAssemblyID
	if assembly == "" {
		m.mu.Unlock()
		return
	}
	next := m.state
	next.LoadingTracks = true
	changed := m.commit(next)
	m.mu.Unlock()
	m.publish(changed)

	tracks, err := catalog.Tracks(ctx)
	if err != nil {
		m.logger.Error("failed to list tracks", zap.String("assembly", assembly), zap.Error(err))
	}
	compatible := session.CompatibleTracks(tracks, assembly)

	m.mu.Lock()
	if m.state.SelectedAssemblyID != assembly {
		m.mu.Unlock()
		m.logger.Debug("discarding track list for previous assembly", zap.String("assembly", assembly))
		return
	}
	next = m.state
	next.LoadingTracks = false
	next.AvailableTracks = compatible
	changed = m.commit(next)
	m.mu.Unlock()

	m.publish(domain.TracksLoadedEvent{AssemblyName: assembly, Tracks: compatible}, changed)
}

// SetSelectedTrack selects a track and clears the feature and search state.
// Ignored while no assembly is selected.
func (m *Machine) SetSelectedTrack(id string) {
	m.mu.Lock()
	if id != "" && m.state.SelectedAssemblyID == "" {
		m.mu.Unlock()
		m.logger.Debug("track selection ignored without an assembly", zap.String("track", id))
		return
	}
	m.generation++
	next := m.state.withoutFeature().withoutSearch()
	next.SelectedTrackID = id
	changed := m.commit(next)
	assembly := next.SelectedAssemblyID
	m.mu.Unlock()

	m.logger.Debug("track selected", zap.String("track", id))
	m.publish(domain.TrackSelectedEvent{AssemblyName: assembly, TrackID: id}, changed)
}

// SetSearchTerm stores term and reacts to its trimmed length: at or above the
// minimum a search runs (blocking until it settles), empty clears results,
// anything in between leaves results as they are.
func (m *Machine) SetSearchTerm(ctx context.Context, term string) {
	if m.UpdateSearchTerm(term) {
		m.SearchFeatures(ctx)
	}
}

// UpdateSearchTerm stores term without searching and reports whether it is
// long enough to search for. An empty term clears the results. Callers that
// search asynchronously commit terms here in input order and run
// SearchFeatures afterwards.
func (m *Machine) UpdateSearchTerm(term string) bool {
	n := queryLength(term)

	m.mu.Lock()
	next := m.state
	next.SearchTerm = term
	if n == 0 {
		m.generation++
		next.SearchResults = nil
		next.IsSearching = false
	}
	changed := m.commit(next)
	m.mu.Unlock()
	m.publish(changed)

	if n == 0 {
		m.publish(domain.SearchClearedEvent{})
		return false
	}
	return n >= m.opts.MinQueryLength
}

// SearchFeatures runs the current term against the selected track and
// commits the results unless the selection moved on in the meantime.
// Failures leave empty results; nothing is returned to the caller.
func (m *Machine) SearchFeatures(ctx context.Context) {
	m.mu.Lock()
	st := m.state
	if st.SelectedAssemblyID == "" || st.SelectedTrackID == "" || queryLength(st.SearchTerm) < m.opts.MinQueryLength {
		m.mu.Unlock()
		return
	}
	m.generation++
	gen := m.generation
	next := st.withoutFeature()
	next.SearchResults = nil
	next.IsSearching = true
	changed := m.commit(next)
	m.mu.Unlock()

	m.publish(domain.SearchStartedEvent{Query: st.SearchTerm, Generation: gen}, changed)

	req := search.Request{
		Query:        st.SearchTerm,
		AssemblyName: st.SelectedAssemblyID,
		TrackID:      st.SelectedTrackID,
	}
	if m.opts.ContentHints {
		req.ContentExtractor = m.aggregator.Hints
	}

	var (
		outcome search.Outcome
		err     error
	)
	if m.searcher == nil {
		err = session.ErrNoSession
	} else {
		outcome, err = m.searcher.Search(ctx, req)
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.logger.Debug("discarding stale search results",
			zap.String("query", st.SearchTerm), zap.Uint64("generation", gen))
		m.publish(domain.SearchDiscardedEvent{Query: st.SearchTerm, Generation: gen})
		return
	}
	next = m.state
	next.IsSearching = false
	if err != nil {
		m.logger.Error("search failed", zap.String("query", st.SearchTerm), zap.Error(err))
		next.SearchResults = nil
	} else {
		next.SearchResults = filterTrack(outcome.Results, next.SelectedTrackID)
	}
	changed = m.commit(next)
	count := len(next.SearchResults)
	m.mu.Unlock()

	m.logger.Debug("search committed",
		zap.String("query", st.SearchTerm),
		zap.Stringer("tier", outcome.Tier),
		zap.Int("results", count))
	m.publish(domain.SearchCompletedEvent{Query: st.SearchTerm, Generation: gen, Results: count}, changed)
}

// filterTrack drops results that belong to another track
func filterTrack(results []domain.SearchResult, trackID string) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if trackID != "" && r.TrackID != "" && r.TrackID != trackID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SetSelectedFeature selects a feature. When fields is nil the id is looked
// up in the current results; an unknown id is kept as a fallback selection
// with empty content. An empty id clears the selection.
func (m *Machine) SetSelectedFeature(id, featureType string, fields *domain.FeatureContent) {
	m.mu.Lock()
	if id != "" && m.state.SelectedTrackID == "" {
		m.mu.Unlock()
		m.logger.Debug("feature selection ignored without a track", zap.String("feature", id))
		return
	}
	next := m.state.withoutFeature()
	fallback := false
	if id != "" {
		next.SelectedFeatureID = id
		next.SelectedFeatureType = featureType
		switch res, found := m.state.Result(id); {
		case fields != nil:
			next.Content = *fields
			if found {
				next.SelectedFeatureName = res.Name
			}
		case found:
			next.SelectedFeatureName = res.Name
			next.Content = res.Content
			if featureType == "" {
				next.SelectedFeatureType = res.Type
			}
		default:
			fallback = true
			next.FallbackSelection = true
		}
	}
	changed := m.commit(next)
	m.mu.Unlock()

	if fallback {
		m.logger.Debug("feature not among results, using fallback selection", zap.String("feature", id))
	}
	m.publish(domain.FeatureSelectedEvent{FeatureID: id, Fallback: fallback}, changed)
}

// ShowFeature aggregates the content of f and its sub-features into the
// current selection
func (m *Machine) ShowFeature(f domain.Feature) {
	m.mu.Lock()
	mode := m.state.Mode
	for {
		m.mu.Unlock()
		c := m.aggregator.Content(f, mode)
		m.mu.Lock()
		// aggregate again if the mode was switched meanwhile
		if m.state.Mode != mode {
			mode = m.state.Mode
			continue
		}
		next := m.state
		next.Content = c
		next.LoadingFeature = false
		changed := m.commit(next)
		m.mu.Unlock()
		m.publish(changed)
		return
	}
}

// LoadFeature fetches the full feature behind the selected result and shows
// its aggregated content. The fetch is dropped if the selection or the mode
// changes.
func (m *Machine) LoadFeature(ctx context.Context) {
	m.mu.Lock()
	st := m.state
	res, found := st.Result(st.SelectedFeatureID)
	if !found || m.session == nil {
		m.mu.Unlock()
		return
	}
	gen := m.generation
	next := st
	next.LoadingFeature = true
	changed := m.commit(next)
	m.mu.Unlock()
	m.publish(changed)

	f, err := m.fetchFeature(ctx, st, res)
	if err != nil {
		m.logger.Warn("failed to load feature", zap.String("feature", res.ID), zap.Error(err))
	}
	var c domain.FeatureContent
	if f != nil {
		c = m.aggregator.Content(f, st.Mode)
	}

	m.mu.Lock()
	if m.generation != gen || m.state.SelectedFeatureID != st.SelectedFeatureID || m.state.Mode != st.Mode {
		m.mu.Unlock()
		m.logger.Debug("discarding stale feature load", zap.String("feature", res.ID))
		return
	}
	next = m.state
	next.LoadingFeature = false
	if f != nil {
		next.Content = next.Content.Merge(c)
	}
	changed = m.commit(next)
	m.mu.Unlock()
	m.publish(changed)
}

func (m *Machine) fetchFeature(ctx context.Context, st State, res domain.SearchResult) (domain.Feature, error) {
	region, err := domain.ParseRegion(res.Location)
	if err != nil {
		return nil, err
	}
	track, err := m.session.ResolveTrack(ctx, st.SelectedTrackID)
	if err != nil {
		return nil, err
	}
	feats, err := m.session.CallFeatureService(ctx, session.MethodGetFeatures, session.FeatureRequest{
		SessionID: m.session.ID(),
		Regions: []session.RequestRegion{{
			RefName:      region.RefName,
			Start:        region.Start,
			End:          region.End,
			AssemblyName: st.SelectedAssemblyID,
		}},
		AdapterConfig: track.Adapter,
		TrackID:       track.TrackID,
	})
	if err != nil {
		return nil, err
	}
	for _, f := range feats {
		if f == nil {
			continue
		}
		id, name := search.Identity(f, res.Location)
		if id == res.ID || name+"@"+res.Location == res.ID {
			return f, nil
		}
	}
	return nil, nil
}

// SetMode switches the content family. Content gathered under the previous
// mode is dropped; call LoadFeature to refill it.
func (m *Machine) SetMode(mode content.Mode) {
	m.mu.Lock()
	if m.state.Mode == mode {
		m.mu.Unlock()
		return
	}
	next := m.state
	next.Mode = mode
	next.Content = domain.FeatureContent{}
	// loads started under the old mode are discarded
	next.LoadingFeature = false
	changed := m.commit(next)
	m.mu.Unlock()
	m.publish(changed)
}

// ClearSearch resets the term, results and feature selection
func (m *Machine) ClearSearch() {
	m.mu.Lock()
	m.generation++
	next := m.state.withoutFeature().withoutSearch()
	changed := m.commit(next)
	m.mu.Unlock()
	m.publish(domain.SearchClearedEvent{}, changed)
}

// ClearSelections resets all selection and search state. Calling it on an
// already empty state changes nothing.
func (m *Machine) ClearSelections() {
	m.mu.Lock()
	if m.state.isEmpty() {
		m.mu.Unlock()
		return
	}
	m.generation++
	changed := m.commit(State{Mode: m.state.Mode})
	m.mu.Unlock()
	m.publish(domain.SelectionsClearedEvent{}, changed)
}
