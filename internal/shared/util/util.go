package util

import (
	"path"
	"sort"
	"strings"
)

// NormalizePatternPath cleans and normalizes paths for matcher/pattern usage.
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix returns true when path equals prefix or is contained within prefix.
func HasPathPrefix(path, prefix string) bool {
	path = NormalizePatternPath(path)
	prefix = NormalizePatternPath(prefix)
	if path == "" || prefix == "" {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SortedStringSet flattens a string set into a sorted slice.
func SortedStringSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UniqueScanRoots removes roots that are nested inside another listed root.
func UniqueScanRoots(roots []string) []string {
	normalized := make([]string, 0, len(roots))
	for _, r := range roots {
		if n := NormalizePatternPath(r); n != "" {
			normalized = append(normalized, n)
		} else if strings.TrimSpace(r) != "" {
			normalized = append(normalized, ".")
		}
	}
	sort.Strings(normalized)

	out := make([]string, 0, len(normalized))
	for _, root := range normalized {
		nested := false
		for _, kept := range out {
			if kept == "." || HasPathPrefix(root, kept) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, root)
		}
	}
	return out
}
