package vn

import (
	"strings"
	"unicode"
)

// Separator joins the segments of a qualified name.
const Separator = "."

// Name is a dotted, hierarchical name uniquely identifying a node or a variable
// within the network, eg. "plant.boiler.temp".
type Name string

// Join builds a Name from its segments.
func Join(segments ...string) Name {
	return Name(strings.Join(segments, Separator))
}

// Segments splits the name into its segments.
func (n Name) Segments() []string {
	if n == "" {
		return nil
	}
	return strings.Split(string(n), Separator)
}

// Parent returns the name without its last segment, or "" for a top-level name.
func (n Name) Parent() Name {
	i := strings.LastIndex(string(n), Separator)
	if i < 0 {
		return ""
	}
	return n[:i]
}

// Base returns the last segment of the name.
func (n Name) Base() string {
	i := strings.LastIndex(string(n), Separator)
	return string(n[i+1:])
}

// Child returns the name of a direct child of n.
func (n Name) Child(base string) Name {
	if n == "" {
		return Name(base)
	}
	return n + Name(Separator+base)
}

// Valid reports whether every segment is non-empty and free of whitespace.
func (n Name) Valid() bool {
	segs := n.Segments()
	if len(segs) == 0 {
		return false
	}
	for _, s := range segs {
		if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
			return false
		}
	}
	return true
}

func (n Name) String() string {
	return string(n)
}
