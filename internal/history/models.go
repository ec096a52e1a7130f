package history

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	// ErrNotFound is returned when no run matches an identifier.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned when an identifier prefix matches several runs.
	ErrAmbiguous = errors.New("run identifier is ambiguous")
)

// Run is one redaction run as recorded in the ledger.
type Run struct {
	ID             string
	InputPath      string
	OutputPath     string
	Status         Status
	WindowSize     int
	Backend        string
	FrameCount     int
	FramesEmitted  int
	FramesRedacted int
	Windows        int
	Duration       time.Duration
	ErrorMessage   string
	CreatedAt      time.Time
	FinishedAt     time.Time
	Templates      []Template
}

// Template is a run's per-template record.
type Template struct {
	Name            string
	Path            string
	Threshold       float64
	ExtractCalls    int
	BoundaryHits    int
	ReusedFrames    int
	SkippedFrames   int
	Occurrences     int
	ActiveWindows   int
	ReusableWindows int
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ShortID returns the first eight characters of a run identifier.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
