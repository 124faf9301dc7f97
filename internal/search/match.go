package search

import (
	"strings"

	"featurelens/internal/domain"
)

// matchFields are the attributes scanned by the range tier
var matchFields = []string{
	"id", "name", "type", "gene", "gene_name", "locus_tag",
	"product", "note", "description", "comment",
}

// Matches reports whether any scanned attribute of f contains query,
// ignoring case. Both the lower-case key and its capitalized GFF3 form are tried.
func Matches(f domain.Feature, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || f == nil {
		return false
	}
	for _, field := range matchFields {
		for _, key := range fieldKeys(field) {
			v := f.Get(key)
			if v.Missing() {
				continue
			}
			if strings.Contains(strings.ToLower(v.Text()), q) {
				return true
			}
		}
	}
	return false
}

func fieldKeys(field string) []string {
	switch field {
	case "id":
		return []string{"id", "ID"}
	case "name":
		return []string{"name", "Name"}
	case "note":
		return []string{"note", "Note"}
	}
	return []string{field}
}
