package window

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned for window sizes below 1.
	ErrInvalidSize = errors.New("window size must be at least 1")
	// ErrPhase is returned when a scheduler method is called out of turn.
	ErrPhase = errors.New("scheduler called in wrong phase")
)

// Phase is the scheduler's position in the per-window cycle.
type Phase int

const (
	// WindowStart waits for the next window to be opened.
	WindowStart Phase = iota
	// ReadAheadMatched holds the boundary matches of the open window.
	ReadAheadMatched
	// IntermediateProcessing is processing the window's intermediate frames.
	IntermediateProcessing
	// Done means every frame has been scheduled.
	Done
)

func (p Phase) String() string {
	switch p {
	case WindowStart:
		return "window-start"
	case ReadAheadMatched:
		return "read-ahead-matched"
	case IntermediateProcessing:
		return "intermediate-processing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Scheduler walks a stream of frameCount frames in windows of size frames.
// The final window is shortened to the frames that remain.
//
//	WindowStart --Open/Observe--> ReadAheadMatched --Intermediates-->
//	IntermediateProcessing --Finish--> WindowStart ... --Open--> Done
type Scheduler struct {
	size       int
	frameCount int
	phase      Phase
	next       int
	windows    int
	open       *Window
	previous   Matches
	state      *State
}

// NewScheduler validates size and returns a scheduler at WindowStart.
func NewScheduler(frameCount, size int) (*Scheduler, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if frameCount < 0 {
		return nil, fmt.Errorf("invalid frame count %d", frameCount)
	}
	s := &Scheduler{size: size, frameCount: frameCount, previous: Matches{}}
	if frameCount == 0 {
		s.phase = Done
	}
	return s, nil
}

// Plan lists every window of a frameCount-frame stream.
func Plan(frameCount, size int) ([]Window, error) {
	s, err := NewScheduler(frameCount, size)
	if err != nil {
		return nil, err
	}
	var windows []Window
	for start, index := 0, 0; start < frameCount; start, index = start+size, index+1 {
		windows = append(windows, s.windowAt(start, index))
	}
	return windows, nil
}

// Phase returns the current phase.
func (s *Scheduler) Phase() Phase { return s.phase }

// Size returns the configured window size.
func (s *Scheduler) Size() int { return s.size }

// Windows returns the number of windows opened so far.
func (s *Scheduler) Windows() int { return s.windows }

// Open returns the next window. It reports false and moves to Done once the
// stream is exhausted.
func (s *Scheduler) Open() (Window, bool, error) {
	if s.phase == Done {
		return Window{}, false, nil
	}
	if s.phase != WindowStart || s.open != nil {
		return Window{}, false, s.phaseErr("Open")
	}
	if s.next >= s.frameCount {
		s.phase = Done
		return Window{}, false, nil
	}
	w := s.windowAt(s.next, s.windows)
	s.open = &w
	s.windows++
	return w, true, nil
}

// Observe records the full match of the open window's boundary frame and
// derives the window state.
func (s *Scheduler) Observe(current Matches) (*State, error) {
	if s.phase != WindowStart || s.open == nil {
		return nil, s.phaseErr("Observe")
	}
	s.state = NewState(*s.open, s.previous, current)
	s.phase = ReadAheadMatched
	return s.state, nil
}

// Intermediates moves to intermediate processing and returns the state that
// governs it.
func (s *Scheduler) Intermediates() (*State, error) {
	if s.phase != ReadAheadMatched {
		return nil, s.phaseErr("Intermediates")
	}
	s.phase = IntermediateProcessing
	return s.state, nil
}

// Finish closes the window. Its boundary matches become the previous
// boundary of the next window.
func (s *Scheduler) Finish() error {
	if s.phase != IntermediateProcessing {
		return s.phaseErr("Finish")
	}
	s.previous = s.state.Current
	s.next = s.open.End + 1
	s.open = nil
	s.state = nil
	s.phase = WindowStart
	return nil
}

func (s *Scheduler) windowAt(start, index int) Window {
	end := min(start+s.size-1, s.frameCount-1)
	return Window{Index: index, Start: start, End: end}
}

func (s *Scheduler) phaseErr(op string) error {
	return fmt.Errorf("%w: %s during %s", ErrPhase, op, s.phase)
}
