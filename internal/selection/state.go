package selection

import (
	"strings"
	"unicode/utf8"

	"featurelens/internal/content"
	"featurelens/internal/domain"
)

// State is an immutable snapshot of one view's selections. Slices are never
// modified after a snapshot is published.
type State struct {
	Version uint64 // increases with every committed transition

	SelectedAssemblyID string
	AvailableTracks    []domain.Track
	LoadingTracks      bool

	SelectedTrackID string

	SelectedFeatureID   string
	SelectedFeatureType string
	SelectedFeatureName string
	FallbackSelection   bool // the feature id was not among the results
	Content             domain.FeatureContent
	LoadingFeature      bool

	SearchTerm    string
	SearchResults []domain.SearchResult
	IsSearching   bool

	Mode content.Mode
}

// HasSearchTerm reports whether a non-blank term is entered
func (s State) HasSearchTerm() bool {
	return strings.TrimSpace(s.SearchTerm) != ""
}

// HasSearchResults reports whether results are present
func (s State) HasSearchResults() bool {
	return len(s.SearchResults) > 0
}

// CanSearch reports whether a track is selected and no search is running
func (s State) CanSearch() bool {
	return s.SelectedTrackID != "" && !s.IsSearching
}

// IsReady reports whether nothing is loading
func (s State) IsReady() bool {
	return !s.LoadingTracks && !s.LoadingFeature
}

// HasContent reports whether the primary content field for the mode is non-blank
func (s State) HasContent() bool {
	if s.Mode == content.ModeText {
		return strings.TrimSpace(s.Content.MarkdownURLs) != ""
	}
	return strings.TrimSpace(s.Content.Images) != ""
}

// DisplayTitle appends the selected feature id to base
func (s State) DisplayTitle(base string) string {
	if s.SelectedFeatureID == "" {
		return base
	}
	return base + " - " + s.SelectedFeatureID
}

// Result looks up a search result by id
func (s State) Result(id string) (domain.SearchResult, bool) {
	for _, r := range s.SearchResults {
		if r.ID == id {
			return r, true
		}
	}
	return domain.SearchResult{}, false
}

// isEmpty reports whether there is nothing left for a full reset to clear
func (s State) isEmpty() bool {
	return s.SelectedAssemblyID == "" &&
		len(s.AvailableTracks) == 0 &&
		!s.LoadingTracks &&
		s.SelectedTrackID == "" &&
		s.SelectedFeatureID == "" &&
		s.SelectedFeatureType == "" &&
		s.SelectedFeatureName == "" &&
		!s.FallbackSelection &&
		s.Content.IsZero() &&
		!s.LoadingFeature &&
		s.SearchTerm == "" &&
		len(s.SearchResults) == 0 &&
		!s.IsSearching
}

// withoutFeature clears the feature selection
func (s State) withoutFeature() State {
	s.SelectedFeatureID = ""
	s.SelectedFeatureType = ""
	s.SelectedFeatureName = ""
	s.FallbackSelection = false
	s.Content = domain.FeatureContent{}
	s.LoadingFeature = false
	return s
}

// withoutSearch clears the term, results and searching flag
func (s State) withoutSearch() State {
	s.SearchTerm = ""
	s.SearchResults = nil
	s.IsSearching = false
	return s
}

func queryLength(term string) int {
	return utf8.RuneCountInString(strings.TrimSpace(term))
}
