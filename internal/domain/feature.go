package domain

import (
	"strconv"
	"strings"
)

type valueKind int

const (
	kindMissing valueKind = iota
	kindString
	kindList
	kindFeatures
)

// Value is the result of reading a feature attribute. The zero Value is missing.
type Value struct {
	kind     valueKind
	str      string
	list     []string
	features []Feature
}

// Str wraps a single string attribute
func Str(s string) Value {
	return Value{kind: kindString, str: s}
}

// List wraps a multi-valued attribute
func List(items ...string) Value {
	return Value{kind: kindList, list: items}
}

// Features wraps a nested feature list (subfeatures/children)
func Features(fs ...Feature) Value {
	return Value{kind: kindFeatures, features: fs}
}

// Missing reports whether the attribute was absent
func (v Value) Missing() bool { return v.kind == kindMissing }

// IsList reports whether the attribute holds a string list
func (v Value) IsList() bool { return v.kind == kindList }

// Text returns the attribute as a single string. Lists are comma-joined.
func (v Value) Text() string {
	switch v.kind {
	case kindString:
		return v.str
	case kindList:
		return strings.Join(v.list, ",")
	}
	return ""
}

// Strings returns the list form of a list attribute, or a one-element slice for a string
func (v Value) Strings() []string {
	switch v.kind {
	case kindString:
		return []string{v.str}
	case kindList:
		return v.list
	}
	return nil
}

// Features returns nested features, if the attribute holds any
func (v Value) Features() []Feature {
	if v.kind == kindFeatures {
		return v.features
	}
	return nil
}

// Feature is an annotated genomic element with key/value attribute access
type Feature interface {
	Get(key string) Value
}

// Parent is implemented by features that expose sub-features directly
type Parent interface {
	Children() []Feature
}

// Identified is implemented by features that carry an intrinsic identity
type Identified interface {
	ID() string
}

// Attrs is a map-backed Feature. Values are string or []string; Sub holds children.
type Attrs struct {
	Values map[string]any
	Sub    []Feature
}

// NewAttrs builds an Attrs feature from string-valued attributes
func NewAttrs(values map[string]string, children ...Feature) *Attrs {
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &Attrs{Values: m, Sub: children}
}

func (a *Attrs) Get(key string) Value {
	if a == nil {
		return Value{}
	}
	if key == "subfeatures" && len(a.Sub) > 0 {
		return Features(a.Sub...)
	}
	switch v := a.Values[key].(type) {
	case string:
		return Str(v)
	case []string:
		return List(v...)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return List(items...)
	case int:
		return Str(strconv.Itoa(v))
	}
	return Value{}
}

func (a *Attrs) Children() []Feature {
	if a == nil {
		return nil
	}
	return a.Sub
}
