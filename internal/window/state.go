package window

import (
	"fmt"
	"image"
	"slices"
)

// Window is a run of frames ending at a boundary frame matched by the
// read-ahead cursor. Frames Start..End-1 are intermediates; End is the
// boundary. The previous window's boundary is frame Start-1.
type Window struct {
	Index int
	Start int
	End   int
}

// Boundary returns the frame matched by the read-ahead cursor.
func (w Window) Boundary() int { return w.End }

// Intermediates returns the number of frames between the two boundaries.
func (w Window) Intermediates() int { return w.End - w.Start }

// Len returns the number of frames the window emits.
func (w Window) Len() int { return w.End - w.Start + 1 }

func (w Window) String() string {
	return fmt.Sprintf("#%d[%d..%d]", w.Index, w.Start, w.End)
}

// State is the per-window working set. It is rebuilt for every window.
type State struct {
	Window   Window
	Previous Matches
	Current  Matches
	active   map[string]bool
	reusable Matches
}

// NewState derives the active and reusable template sets from the matches
// at the previous and current boundaries.
//
// A template is active if it matched at either boundary. An active template
// whose occurrence list is identical at both boundaries is reusable: the
// previous boundary's list stands in for every intermediate frame.
func NewState(w Window, previous, current Matches) *State {
	if previous == nil {
		previous = Matches{}
	}
	if current == nil {
		current = Matches{}
	}
	s := &State{
		Window:   w,
		Previous: previous,
		Current:  current,
		active:   make(map[string]bool),
		reusable: make(Matches),
	}
	for _, m := range []Matches{previous, current} {
		for name := range m {
			if m.Has(name) {
				s.active[name] = true
			}
		}
	}
	for name := range s.active {
		if previous.Same(current, name) {
			s.reusable[name] = previous[name]
		}
	}
	return s
}

// Active reports whether name may appear somewhere inside the window.
func (s *State) Active(name string) bool { return s.active[name] }

// Reusable returns the cached occurrences for name when they can stand in
// for every intermediate frame.
func (s *State) Reusable(name string) ([]image.Rectangle, bool) {
	rects, ok := s.reusable[name]
	return rects, ok
}

// ActiveNames returns the active templates, sorted.
func (s *State) ActiveNames() []string {
	names := make([]string, 0, len(s.active))
	for name := range s.active {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ReusableNames returns the reusable templates, sorted.
func (s *State) ReusableNames() []string {
	return s.reusable.Names()
}

// Decision is what to do with one template on an intermediate frame.
type Decision int

const (
	// Skip means the template is assumed absent.
	Skip Decision = iota
	// Reuse means the cached occurrences apply unchanged.
	Reuse
	// Extract means the template must be matched against the frame.
	Extract
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Reuse:
		return "reuse"
	case Extract:
		return "extract"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Decide returns the intermediate-frame treatment for name.
func (s *State) Decide(name string) Decision {
	if !s.active[name] {
		return Skip
	}
	if _, ok := s.reusable[name]; ok {
		return Reuse
	}
	return Extract
}
