package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventAssemblySelected  EventType = "AssemblySelected"
	EventTrackSelected     EventType = "TrackSelected"
	EventTracksLoaded      EventType = "TracksLoaded"
	EventSearchStarted     EventType = "SearchStarted"
	EventSearchCompleted   EventType = "SearchCompleted"
	EventSearchDiscarded   EventType = "SearchDiscarded"
	EventSearchCleared     EventType = "SearchCleared"
	EventFeatureSelected   EventType = "FeatureSelected"
	EventSelectionsCleared EventType = "SelectionsCleared"
	EventStateChanged      EventType = "StateChanged"
	EventConfigLoaded      EventType = "ConfigLoaded"
	EventConfigSaved       EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// AssemblySelectedEvent is emitted when the user picks an assembly
type AssemblySelectedEvent struct {
	AssemblyName string
}

func (e AssemblySelectedEvent) Type() EventType { return EventAssemblySelected }

// TrackSelectedEvent is emitted when the user picks a track
type TrackSelectedEvent struct {
	AssemblyName string
	TrackID      string
}

func (e TrackSelectedEvent) Type() EventType { return EventTrackSelected }

// TracksLoadedEvent is emitted once the compatible tracks of an assembly are known
type TracksLoadedEvent struct {
	AssemblyName string
	Tracks       []Track
}

func (e TracksLoadedEvent) Type() EventType { return EventTracksLoaded }

// SearchStartedEvent is emitted when a search is dispatched
type SearchStartedEvent struct {
	Query      string
	Generation uint64
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCompletedEvent is emitted when search results are committed
type SearchCompletedEvent struct {
	Query      string
	Generation uint64
	Results    int
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchDiscardedEvent is emitted when a finished search no longer matches the selection
type SearchDiscardedEvent struct {
	Query      string
	Generation uint64
}

func (e SearchDiscardedEvent) Type() EventType { return EventSearchDiscarded }

// SearchClearedEvent is emitted when the search term and results are reset
type SearchClearedEvent struct{}

func (e SearchClearedEvent) Type() EventType { return EventSearchCleared }

// FeatureSelectedEvent is emitted when a feature is chosen for display
type FeatureSelectedEvent struct {
	FeatureID string
	Fallback  bool // the id was not among the current results
}

func (e FeatureSelectedEvent) Type() EventType { return EventFeatureSelected }

// SelectionsClearedEvent is emitted on a full reset
type SelectionsClearedEvent struct{}

func (e SelectionsClearedEvent) Type() EventType { return EventSelectionsCleared }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is written
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
