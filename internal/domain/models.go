package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is a contiguous interval on a reference sequence
type Region struct {
	RefName string `yaml:"ref_name"`
	Start   int    `yaml:"start"`
	End     int    `yaml:"end"`
}

// String formats the region as refName:start-end
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.RefName, r.Start, r.End)
}

// ParseRegion parses refName:start-end. The reference name may itself contain colons.
func ParseRegion(s string) (Region, error) {
	colon := strings.LastIndex(s, ":")
	if colon <= 0 {
		return Region{}, fmt.Errorf("invalid region %q", s)
	}
	bounds := strings.SplitN(s[colon+1:], "-", 2)
	if len(bounds) != 2 {
		return Region{}, fmt.Errorf("invalid region %q", s)
	}
	start, err := strconv.Atoi(bounds[0])
	if err != nil {
		return Region{}, fmt.Errorf("invalid region start %q: %w", s, err)
	}
	end, err := strconv.Atoi(bounds[1])
	if err != nil {
		return Region{}, fmt.Errorf("invalid region end %q: %w", s, err)
	}
	if end < start {
		return Region{}, fmt.Errorf("invalid region %q: end before start", s)
	}
	return Region{RefName: s[:colon], Start: start, End: end}, nil
}

// Assembly represents a reference genome
type Assembly struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Aliases     []string `yaml:"aliases"`
	Regions     []Region `yaml:"regions"`
}

// Label returns the display name, falling back to the identifier
func (a Assembly) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}

// Adapter describes how features are retrieved for a track
type Adapter struct {
	Type       string         `yaml:"type"`
	Index      bool           `yaml:"index"`
	TextSearch bool           `yaml:"text_search"`
	Config     map[string]any `yaml:"config"`
}

// Track is an annotation dataset bound to an assembly
type Track struct {
	TrackID       string   `yaml:"track_id"`
	Name          string   `yaml:"name"`
	AssemblyNames []string `yaml:"assembly_names"`
	Adapter       Adapter  `yaml:"adapter"`
}

// Label returns the display name, falling back to the identifier
func (t Track) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.TrackID
}

// BelongsTo reports whether the track is bound to the given assembly
func (t Track) BelongsTo(assembly string) bool {
	for _, name := range t.AssemblyNames {
		if name == assembly {
			return true
		}
	}
	return false
}

// FeatureContent holds the comma-joined content strings attached to a feature
type FeatureContent struct {
	Images       string
	Labels       string
	Types        string
	MarkdownURLs string
	Descriptions string
	ContentTypes string
}

// IsZero reports whether no content field is set
func (c FeatureContent) IsZero() bool {
	return c == FeatureContent{}
}

// Merge overlays the non-empty fields of other onto c
func (c FeatureContent) Merge(other FeatureContent) FeatureContent {
	pick := func(cur, next string) string {
		if strings.TrimSpace(next) != "" {
			return next
		}
		return cur
	}
	return FeatureContent{
		Images:       pick(c.Images, other.Images),
		Labels:       pick(c.Labels, other.Labels),
		Types:        pick(c.Types, other.Types),
		MarkdownURLs: pick(c.MarkdownURLs, other.MarkdownURLs),
		Descriptions: pick(c.Descriptions, other.Descriptions),
		ContentTypes: pick(c.ContentTypes, other.ContentTypes),
	}
}

// SearchResult is one located feature match
type SearchResult struct {
	ID       string
	Name     string
	Type     string
	Location string // refName:start-end of the queried region
	TrackID  string
	Content  FeatureContent
}
