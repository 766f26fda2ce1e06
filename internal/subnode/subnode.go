// Package subnode implements the '/'-delimited hierarchical path semantics
// of the per-user node tree: normalization, segment-boundary prefix
// matching, and immediate-child extraction.
package subnode

import "strings"

// Separator delimits path segments.
const Separator = "/"

// Root is the sentinel for the tree root: the empty path. It is distinct
// from a path with a single empty segment; normalization never produces
// empty segments.
const Root = ""

// Normalize splits path on the separator, drops empty segments and rejoins
// the rest. Leading, trailing and doubled separators all collapse, so
// "a/b/", "a//b" and "/a/b" normalize to "a/b". The empty result is Root.
func Normalize(path string) string {
	return strings.Join(Split(path), Separator)
}

// Split returns the non-empty segments of path. Root yields a nil slice.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, Separator)
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	if len(segments) == 0 {
		return nil
	}
	return segments
}

// IsRoot reports whether the normalized path denotes the tree root.
func IsRoot(path string) bool {
	return Normalize(path) == Root
}

// HasPrefix reports whether node equals prefix or lies below it in the
// tree. Matching is per segment: "a" prefixes "a" and "a/b" but never "ab"
// or "a2/b". Root prefixes every node. Both arguments are normalized
// before comparison.
func HasPrefix(node, prefix string) bool {
	ns := Split(node)
	ps := Split(prefix)
	if len(ps) > len(ns) {
		return false
	}
	for i, seg := range ps {
		if ns[i] != seg {
			return false
		}
	}
	return true
}

// Child returns the path segment of node immediately below parent. The
// second result is false when node is not strictly below parent.
func Child(node, parent string) (string, bool) {
	ns := Split(node)
	ps := Split(parent)
	if len(ns) <= len(ps) {
		return "", false
	}
	for i, seg := range ps {
		if ns[i] != seg {
			return "", false
		}
	}
	return ns[len(ps)], true
}
