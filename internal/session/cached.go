package session

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"featurelens/internal/domain"
)

// cached memoizes assembly resolution. Concurrent lookups of the same
// assembly share one call to the wrapped session.
type cached struct {
	Context
	group singleflight.Group

	mu         sync.RWMutex
	assemblies map[string]domain.Assembly
}

// Cached wraps s so that ResolveAssembly hits the underlying session at most
// once per successfully resolved assembly. Optional capabilities of s stay reachable.
func Cached(s Context) Context {
	c := &cached{Context: s, assemblies: make(map[string]domain.Assembly)}
	idx, hasIndex := s.(TextIndex)
	cat, hasCatalog := s.(Catalog)
	switch {
	case hasIndex && hasCatalog:
		return &struct {
			*cached
			TextIndex
			Catalog
		}{c, idx, cat}
	case hasIndex:
		return &struct {
			*cached
			TextIndex
		}{c, idx}
	case hasCatalog:
		return &struct {
			*cached
			Catalog
		}{c, cat}
	}
	return c
}

func (c *cached) ResolveAssembly(ctx context.Context, name string) (domain.Assembly, error) {
	c.mu.RLock()
	asm, ok := c.assemblies[name]
	c.mu.RUnlock()
	if ok {
		return asm, nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		asm, err := c.Context.ResolveAssembly(ctx, name)
		if err != nil {
			return domain.Assembly{}, err
		}
		c.mu.Lock()
		c.assemblies[name] = asm
		c.mu.Unlock()
		return asm, nil
	})
	if err != nil {
		return domain.Assembly{}, err
	}
	return v.(domain.Assembly), nil
}
