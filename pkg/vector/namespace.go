package vector

import (
	"regexp"
	"strings"
)

const (
	// UncategorizedNamespace receives resumes whose category is empty or
	// unrecognized. It always exists in both indexes.
	UncategorizedNamespace = "uncategorized"

	// placeholderPrefix marks the seed vector ids that pre-create
	// namespaces; namespaces whose names carry it never reach callers.
	placeholderPrefix = "_namespace_init_"
)

var (
	nonAlnumRuns   = regexp.MustCompile(`[^a-z0-9_]+`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// Namespace derives the vector namespace for a category label. The
// derivation is a pure function: lowercase, replace non-alphanumeric runs
// with '_', collapse repeats, trim. Empty input maps to "uncategorized".
func Namespace(category string) string {
	s := strings.ToLower(category)
	s = nonAlnumRuns.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return UncategorizedNamespace
	}
	return s
}

// PlaceholderID returns the well-known seed vector id for a namespace.
func PlaceholderID(namespace string) string {
	return placeholderPrefix + namespace
}

// IsPlaceholderID reports whether a vector id is a namespace seed that must
// be dropped from query results.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// IsPlaceholderNamespace reports whether a namespace name is an init
// artifact that must be hidden from callers.
func IsPlaceholderNamespace(name string) bool {
	return strings.HasPrefix(name, placeholderPrefix)
}
