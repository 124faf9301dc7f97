package session

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"featurelens/internal/domain"
)

// FixtureFile is the on-disk layout of a fixture session
type FixtureFile struct {
	Assemblies []domain.Assembly            `yaml:"assemblies"`
	Tracks     []domain.Track               `yaml:"tracks"`
	Features   map[string][]FixtureFeature `yaml:"features"` // track id -> features
}

// FixtureFeature is a feature record as written in a fixture file
type FixtureFeature struct {
	RefName     string           `yaml:"ref_name"`
	Start       int              `yaml:"start"`
	End         int              `yaml:"end"`
	Attributes  map[string]any   `yaml:"attributes"`
	Subfeatures []FixtureFeature `yaml:"subfeatures"`
}

type storedFeature struct {
	refName    string
	start, end int
	feature    *domain.Attrs
}

// Fixture is an in-memory session backed by a YAML file. Tracks flagged
// text_search get a prefix index over their top-level feature names.
type Fixture struct {
	id         string
	assemblies []domain.Assembly
	tracks     []domain.Track
	features   map[string][]storedFeature
}

// LoadFixture reads a fixture session from path
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a fixture session from YAML
func ParseFixture(data []byte) (*Fixture, error) {
	var file FixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return NewFixture(file), nil
}

// NewFixture builds a session from already decoded data
func NewFixture(file FixtureFile) *Fixture {
	f := &Fixture{
		id:         uuid.NewString(),
		assemblies: file.Assemblies,
		tracks:     file.Tracks,
		features:   make(map[string][]storedFeature, len(file.Features)),
	}
	for trackID, records := range file.Features {
		for _, rec := range records {
			f.features[trackID] = append(f.features[trackID], storedFeature{
				refName: rec.RefName,
				start:   rec.Start,
				end:     rec.End,
				feature: toAttrs(rec),
			})
		}
	}
	return f
}

func toAttrs(rec FixtureFeature) *domain.Attrs {
	values := make(map[string]any, len(rec.Attributes)+3)
	for k, v := range rec.Attributes {
		values[k] = v
	}
	values["refName"] = rec.RefName
	values["start"] = rec.Start
	values["end"] = rec.End

	var kids []domain.Feature
	for _, sub := range rec.Subfeatures {
		if sub.RefName == "" {
			sub.RefName = rec.RefName
		}
		kids = append(kids, toAttrs(sub))
	}
	return &domain.Attrs{Values: values, Sub: kids}
}

func (f *Fixture) ID() string { return f.id }

func (f *Fixture) ResolveAssembly(_ context.Context, name string) (domain.Assembly, error) {
	for _, a := range f.assemblies {
		if a.Name == name {
			return a, nil
		}
		for _, alias := range a.Aliases {
			if alias == name {
				return a, nil
			}
		}
	}
	return domain.Assembly{}, fmt.Errorf("%w: %s", ErrAssemblyNotFound, name)
}

func (f *Fixture) ResolveTrack(_ context.Context, trackID string) (domain.Track, error) {
	for _, t := range f.tracks {
		if t.TrackID == trackID {
			return t, nil
		}
	}
	return domain.Track{}, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
}

// CallFeatureService answers CoreGetFeatures with the stored features that
// overlap any requested region
func (f *Fixture) CallFeatureService(ctx context.Context, method string, req FeatureRequest) ([]domain.Feature, error) {
	if method != MethodGetFeatures {
		return nil, fmt.Errorf("unsupported method %q", method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Feature
	for _, stored := range f.features[req.TrackID] {
		for _, r := range req.Regions {
			if stored.refName == r.RefName && stored.start < r.End && stored.end > r.Start {
				out = append(out, stored.feature)
				break
			}
		}
	}
	return out, nil
}

// SearchIndex does a case-insensitive prefix lookup over Name, ID and gene_name
func (f *Fixture) SearchIndex(ctx context.Context, track domain.Track, _ string, query string, limit int) ([]IndexMatch, error) {
	if !track.Adapter.TextSearch {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []IndexMatch
	for _, stored := range f.features[track.TrackID] {
		if limit > 0 && len(out) >= limit {
			break
		}
		for _, key := range []string{"Name", "ID", "gene_name"} {
			label := stored.feature.Get(key).Text()
			if label != "" && strings.HasPrefix(strings.ToLower(label), q) {
				out = append(out, IndexMatch{RefName: stored.refName, Start: stored.start, End: stored.end, Label: label})
				break
			}
		}
	}
	return out, nil
}

func (f *Fixture) Assemblies(context.Context) ([]domain.Assembly, error) {
	return append([]domain.Assembly(nil), f.assemblies...), nil
}

func (f *Fixture) Tracks(context.Context) ([]domain.Track, error) {
	return append([]domain.Track(nil), f.tracks...), nil
}
