// Package tags models declarative tag assignments for catalog entities and
// the set algebra the reconciler diffs them with. Tag comparison is
// case-sensitive exact string match throughout; no normalization is applied.
package tags

import (
	"sort"
	"strings"
)

// Set is an unordered collection of tag names.
type Set map[string]struct{}

// NewSet creates a set from the given tag names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Add inserts the given tag names into the set.
func (s Set) Add(names ...string) {
	for _, name := range names {
		s[name] = struct{}{}
	}
}

// Contains reports whether the set holds the given tag name.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of tags in the set.
func (s Set) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name := range s {
		out[name] = struct{}{}
	}
	return out
}

// Minus returns the tags present in s but not in other.
func (s Set) Minus(other Set) Set {
	out := make(Set)
	for name := range s {
		if !other.Contains(name) {
			out[name] = struct{}{}
		}
	}
	return out
}

// Union returns a new set holding the tags of both s and other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for name := range s {
		out[name] = struct{}{}
	}
	for name := range other {
		out[name] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same tags.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.Contains(name) {
			return false
		}
	}
	return true
}

// Sorted returns the tag names in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String renders the set as a comma-joined sorted list for reports and logs.
func (s Set) String() string {
	return strings.Join(s.Sorted(), ", ")
}
