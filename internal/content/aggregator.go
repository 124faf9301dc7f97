// Package content collects image and markdown attributes from a feature and
// its nested sub-features into aligned, comma-joined lists.
package content

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"featurelens/internal/dedupe"
	"featurelens/internal/domain"
)

// Mode selects which attribute family is aggregated
type Mode int

const (
	ModeImage Mode = iota
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "image"
}

// ParseMode accepts "image" or "text"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "image", "images":
		return ModeImage, nil
	case "text", "markdown":
		return ModeText, nil
	}
	return ModeImage, fmt.Errorf("unknown content mode %q", s)
}

// noneSentinel marks a primary attribute as intentionally empty
const noneSentinel = "none"

// Nesting deeper than this is treated as malformed input
const maxDepth = 64

// family names the attributes read for one mode
type family struct {
	primary    []string
	aux1, aux2 []string
	def1, def2 string
}

var (
	imageFamily = family{
		primary: []string{"image", "images"},
		aux1:    []string{"image_group"},
		aux2:    []string{"image_tag"},
		def1:    "unlabeled",
		def2:    "unknown",
	}
	textFamily = family{
		primary: []string{"markdown_urls", "markdown_url"},
		aux1:    []string{"descriptions", "description"},
		aux2:    []string{"content_type", "content_types"},
		def1:    "no description",
		def2:    "markdown",
	}
)

func familyFor(m Mode) family {
	if m == ModeText {
		return textFamily
	}
	return imageFamily
}

// triples accumulates index-aligned primary/auxiliary values
type triples struct {
	primary, aux1, aux2 []string
}

func (t *triples) append(o triples) {
	t.primary = append(t.primary, o.primary...)
	t.aux1 = append(t.aux1, o.aux1...)
	t.aux2 = append(t.aux2, o.aux2...)
}

// ImageSet is the image-mode aggregation result
type ImageSet struct {
	Images string
	Labels string
	Types  string
}

// TextSet is the text-mode aggregation result
type TextSet struct {
	MarkdownURLs string
	Descriptions string
	ContentTypes string
}

// Aggregator walks feature trees. It holds no per-call state.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates an aggregator. A nil logger discards log output.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger.Named("content")}
}

// Images aggregates image URLs, labels and types over f and its sub-features
func (a *Aggregator) Images(f domain.Feature) ImageSet {
	p, l, t := a.aggregate(f, imageFamily)
	return ImageSet{Images: p, Labels: l, Types: t}
}

// Text aggregates markdown URLs, descriptions and content types over f and its sub-features
func (a *Aggregator) Text(f domain.Feature) TextSet {
	p, d, c := a.aggregate(f, textFamily)
	return TextSet{MarkdownURLs: p, Descriptions: d, ContentTypes: c}
}

// Content runs the aggregation for mode and returns it as FeatureContent
func (a *Aggregator) Content(f domain.Feature, mode Mode) domain.FeatureContent {
	if mode == ModeText {
		s := a.Text(f)
		return domain.FeatureContent{MarkdownURLs: s.MarkdownURLs, Descriptions: s.Descriptions, ContentTypes: s.ContentTypes}
	}
	s := a.Images(f)
	return domain.FeatureContent{Images: s.Images, Labels: s.Labels, Types: s.Types}
}

// Hints reads both attribute families from f alone, without descending into
// sub-features or deduplicating. Cheap enough to run on every search hit.
func (a *Aggregator) Hints(f domain.Feature) domain.FeatureContent {
	img := a.extract(f, imageFamily)
	txt := a.extract(f, textFamily)
	return domain.FeatureContent{
		Images:       strings.Join(img.primary, ","),
		Labels:       strings.Join(img.aux1, ","),
		Types:        strings.Join(img.aux2, ","),
		MarkdownURLs: strings.Join(txt.primary, ","),
		Descriptions: strings.Join(txt.aux1, ","),
		ContentTypes: strings.Join(txt.aux2, ","),
	}
}

func (a *Aggregator) aggregate(f domain.Feature, fam family) (string, string, string) {
	var acc triples
	a.walk(f, fam, &acc, 0)

	// Dedupe on the primary value only; auxiliaries follow their primary's index.
	idx := make([]int, len(acc.primary))
	for i := range idx {
		idx[i] = i
	}
	kept := dedupe.By(idx, func(i int) (string, bool) { return acc.primary[i], true })

	out := triples{
		primary: make([]string, 0, len(kept)),
		aux1:    make([]string, 0, len(kept)),
		aux2:    make([]string, 0, len(kept)),
	}
	for _, i := range kept {
		out.primary = append(out.primary, acc.primary[i])
		out.aux1 = append(out.aux1, acc.aux1[i])
		out.aux2 = append(out.aux2, acc.aux2[i])
	}
	return strings.Join(out.primary, ","), strings.Join(out.aux1, ","), strings.Join(out.aux2, ",")
}

func (a *Aggregator) walk(f domain.Feature, fam family, acc *triples, depth int) {
	if f == nil {
		return
	}
	if depth > maxDepth {
		a.logger.Warn("feature nesting too deep, stopping descent", zap.Int("depth", depth))
		return
	}
	acc.append(a.extract(f, fam))
	for _, child := range a.children(f) {
		a.walk(child, fam, acc, depth+1)
	}
}

// extract reads one feature's attributes. A panic from the feature
// implementation means the feature contributes nothing.
func (a *Aggregator) extract(f domain.Feature, fam family) (out triples) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("failed to read feature content", zap.Any("panic", r))
			out = triples{}
		}
	}()

	raw := first(f, fam.primary)
	if raw.Missing() || strings.TrimSpace(raw.Text()) == noneSentinel {
		return triples{}
	}
	primary := parseList(raw)
	if len(primary) == 0 {
		return triples{}
	}
	return triples{
		primary: primary,
		aux1:    align(parseList(first(f, fam.aux1)), len(primary), fam.def1),
		aux2:    align(parseList(first(f, fam.aux2)), len(primary), fam.def2),
	}
}

// children tries each sub-feature accessor in turn and uses the first that yields anything
func (a *Aggregator) children(f domain.Feature) []domain.Feature {
	accessors := []func() []domain.Feature{
		func() []domain.Feature { return f.Get("subfeatures").Features() },
		func() []domain.Feature { return f.Get("children").Features() },
		func() []domain.Feature {
			if p, ok := f.(domain.Parent); ok {
				return p.Children()
			}
			return nil
		},
	}
	for _, get := range accessors {
		if kids := a.safeChildren(get); len(kids) > 0 {
			return kids
		}
	}
	return nil
}

func (a *Aggregator) safeChildren(get func() []domain.Feature) (kids []domain.Feature) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("sub-feature accessor failed", zap.Any("panic", r))
			kids = nil
		}
	}()
	return get()
}

// first returns the first attribute among keys that holds at least one
// non-blank entry
func first(f domain.Feature, keys []string) domain.Value {
	for _, k := range keys {
		if v := f.Get(k); !v.Missing() && len(parseList(v)) > 0 {
			return v
		}
	}
	return domain.Value{}
}

// parseList turns a list or comma-separated attribute into trimmed, non-empty entries
func parseList(v domain.Value) []string {
	var parts []string
	if v.IsList() {
		parts = v.Strings()
	} else {
		parts = strings.Split(v.Text(), ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// align sizes aux to n entries: zip when lengths match, broadcast the first
// entry on mismatch, fill with def when aux is empty.
func align(aux []string, n int, def string) []string {
	if len(aux) == n {
		return aux
	}
	fill := def
	if len(aux) > 0 {
		fill = aux[0]
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fill
	}
	return out
}
