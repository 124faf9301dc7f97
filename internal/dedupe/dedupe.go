// Package dedupe removes repeated entries while keeping first-occurrence order.
package dedupe

// Strings drops empty and repeated entries. Values are compared by exact
// string equality; the result is a new slice.
func Strings(items []string) []string {
	return By(items, func(s string) (string, bool) { return s, s != "" })
}

// By keeps the first item for each key. Items for which key reports false are dropped.
func By[T any, K comparable](items []T, key func(T) (K, bool)) []T {
	out := make([]T, 0, len(items))
	seen := make(map[K]struct{}, len(items))
	for _, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
