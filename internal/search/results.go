package search

import (
	"fmt"

	"featurelens/internal/domain"
)

// firstPresent returns the first non-empty attribute among keys
func firstPresent(f domain.Feature, keys ...string) string {
	for _, k := range keys {
		if s := f.Get(k).Text(); s != "" {
			return s
		}
	}
	return ""
}

// ownKey identifies a feature independently of the region it was found in
func ownKey(f domain.Feature) string {
	if ided, ok := f.(domain.Identified); ok {
		if id := ided.ID(); id != "" {
			return id
		}
	}
	ref := firstPresent(f, "refName", "seq_id")
	start := f.Get("start").Text()
	end := f.Get("end").Text()
	if ref == "" && start == "" && end == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s-%s", ref, start, end)
}

// identityFallback is used when a feature has none of the id/name attributes
func identityFallback(f domain.Feature, location string) string {
	if key := ownKey(f); key != "" {
		return key
	}
	return location
}

// collector accumulates results up to a cap, keeping ids unique
type collector struct {
	max       int
	trackID   string
	extractor func(domain.Feature) domain.FeatureContent
	results   []domain.SearchResult
	seen      map[string]string // result id -> owner key
}

func newCollector(max int, trackID string, extractor func(domain.Feature) domain.FeatureContent) *collector {
	return &collector{
		max:       max,
		trackID:   trackID,
		extractor: extractor,
		seen:      make(map[string]string),
	}
}

func (c *collector) full() bool {
	return len(c.results) >= c.max
}

// Identity returns the id and display name a feature found at location is
// reported under, before any disambiguation
func Identity(f domain.Feature, location string) (id, name string) {
	fallback := identityFallback(f, location)
	id = firstPresent(f, "ID", "id", "Name", "name")
	if id == "" {
		id = fallback
	}
	name = firstPresent(f, "Name", "name", "ID", "id")
	if name == "" {
		name = fallback
	}
	return id, name
}

// shape maps a feature found in region into a SearchResult
func (c *collector) shape(f domain.Feature, region domain.Region) domain.SearchResult {
	location := region.String()
	id, name := Identity(f, location)

	res := domain.SearchResult{
		ID:       id,
		Name:     name,
		Type:     f.Get("type").Text(),
		Location: location,
		TrackID:  c.trackID,
	}
	if c.extractor != nil {
		res.Content = res.Content.Merge(c.extractor(f))
	}
	return res
}

// add records res unless the same feature was already collected. A
// different feature sharing the id is renamed name@location. Features with
// an empty owner key cannot be told apart and are never treated as repeats.
func (c *collector) add(res domain.SearchResult, owner string) bool {
	if c.full() {
		return false
	}
	if prev, ok := c.seen[res.ID]; ok {
		if owner != "" && prev == owner {
			return false
		}
		res.ID = res.Name + "@" + res.Location
		if _, taken := c.seen[res.ID]; taken {
			return false
		}
	}
	c.seen[res.ID] = owner
	c.results = append(c.results, res)
	return true
}
