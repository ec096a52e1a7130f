package window

import (
	"image"
	"slices"
)

// Matches maps a template name to its occurrences in one frame. A missing
// key and an empty slice both mean the template did not match.
type Matches map[string][]image.Rectangle

// Has reports whether name matched at least once.
func (m Matches) Has(name string) bool {
	return len(m[name]) > 0
}

// Same reports whether name has the same non-empty occurrence list, in the
// same order, in both m and other.
func (m Matches) Same(other Matches, name string) bool {
	a, b := m[name], other[name]
	return len(a) > 0 && slices.Equal(a, b)
}

// Names returns the templates with at least one occurrence, sorted.
func (m Matches) Names() []string {
	names := make([]string, 0, len(m))
	for name, rects := range m {
		if len(rects) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Count returns the total number of occurrences.
func (m Matches) Count() int {
	total := 0
	for _, rects := range m {
		total += len(rects)
	}
	return total
}

// Clone returns a copy that shares no slices with m.
func (m Matches) Clone() Matches {
	out := make(Matches, len(m))
	for name, rects := range m {
		out[name] = slices.Clone(rects)
	}
	return out
}
