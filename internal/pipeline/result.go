package pipeline

import "time"

// TemplateStats counts the work spent on one template during a run.
type TemplateStats struct {
	Name string `json:"name"`
	// ExtractCalls counts correlator runs, boundary and intermediate.
	ExtractCalls int `json:"extract_calls"`
	// BoundaryHits counts boundary frames where the template matched.
	BoundaryHits int `json:"boundary_hits"`
	// ReusedFrames counts intermediate frames served from the cache.
	ReusedFrames int `json:"reused_frames"`
	// SkippedFrames counts intermediate frames where the template was inactive.
	SkippedFrames int `json:"skipped_frames"`
	// Occurrences counts stamped rectangles.
	Occurrences int `json:"occurrences"`
	// ActiveWindows and ReusableWindows count windows by classification.
	ActiveWindows   int `json:"active_windows"`
	ReusableWindows int `json:"reusable_windows"`
}

// Result summarises a completed run.
type Result struct {
	RunID          string          `json:"run_id"`
	FrameCount     int             `json:"frame_count"`
	FramesEmitted  int             `json:"frames_emitted"`
	FramesRedacted int             `json:"frames_redacted"`
	Windows        int             `json:"windows"`
	WindowSize     int             `json:"window_size"`
	Templates      []TemplateStats `json:"templates"`
	Duration       time.Duration   `json:"duration"`
}

// Template returns the statistics for name.
func (r Result) Template(name string) (TemplateStats, bool) {
	for _, stats := range r.Templates {
		if stats.Name == name {
			return stats, true
		}
	}
	return TemplateStats{}, false
}

// ExtractCalls returns the total correlator runs across templates.
func (r Result) ExtractCalls() int {
	total := 0
	for _, stats := range r.Templates {
		total += stats.ExtractCalls
	}
	return total
}

// Occurrences returns the total stamped rectangles across templates.
func (r Result) Occurrences() int {
	total := 0
	for _, stats := range r.Templates {
		total += stats.Occurrences
	}
	return total
}
