// Package session defines how the core reaches assemblies, tracks and the
// feature-retrieval service of its host.
package session

import (
	"context"
	"errors"

	"featurelens/internal/domain"
)

// MethodGetFeatures is the feature-retrieval RPC name
const MethodGetFeatures = "CoreGetFeatures"

var (
	ErrNoSession        = errors.New("no session available")
	ErrAssemblyNotFound = errors.New("assembly not found")
	ErrTrackNotFound    = errors.New("track not found")
)

// RequestRegion is one region of a feature-retrieval request
type RequestRegion struct {
	RefName      string
	Start        int
	End          int
	AssemblyName string
}

// FeatureRequest is the payload of a CoreGetFeatures call
type FeatureRequest struct {
	SessionID     string
	Regions       []RequestRegion
	AdapterConfig domain.Adapter
	TrackID       string
}

// IndexMatch is a coarse text-index hit: location only, no feature payload
type IndexMatch struct {
	RefName string
	Start   int
	End     int
	Label   string
}

// Context is the host capability set used by the searcher and state machine
type Context interface {
	ID() string
	ResolveAssembly(ctx context.Context, name string) (domain.Assembly, error)
	ResolveTrack(ctx context.Context, trackID string) (domain.Track, error)
	CallFeatureService(ctx context.Context, method string, req FeatureRequest) ([]domain.Feature, error)
}

// TextIndex is implemented by sessions that can answer text-index lookups
type TextIndex interface {
	SearchIndex(ctx context.Context, track domain.Track, assemblyName, query string, limit int) ([]IndexMatch, error)
}

// Catalog is implemented by sessions that can enumerate what they hold
type Catalog interface {
	Assemblies(ctx context.Context) ([]domain.Assembly, error)
	Tracks(ctx context.Context) ([]domain.Track, error)
}
