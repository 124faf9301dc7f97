package session

import "featurelens/internal/domain"

// CompatibleAdapters is the exact set of adapter types whose tracks can be searched
var CompatibleAdapters = map[string]bool{
	"Gff3Adapter":         true,
	"Gff3TabixAdapter":    true,
	"GtfAdapter":          true,
	"BedAdapter":          true,
	"GeneFeaturesAdapter": true,
}

// IsCompatible reports whether a track's adapter is on the allow-list
func IsCompatible(t domain.Track) bool {
	return CompatibleAdapters[t.Adapter.Type]
}

// CompatibleTracks filters tracks to those bound to assembly with an allowed adapter.
// Input order is preserved.
func CompatibleTracks(tracks []domain.Track, assembly string) []domain.Track {
	out := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.BelongsTo(assembly) && IsCompatible(t) {
			out = append(out, t)
		}
	}
	return out
}
