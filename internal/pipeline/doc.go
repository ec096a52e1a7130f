// Package pipeline drives a redaction run.
//
// A Driver opens two decoders over the same source. The read-ahead cursor
// jumps to each window boundary and matches every template there; the
// sequential cursor then decodes the frames in between, which are matched
// only as far as the window state requires. Once a window is complete its
// frames are written to the encoder in decode order and both cursors are
// checked to sit on the next window start.
//
// Run returns a Result with per-template counters in place of shared
// mutable state.
package pipeline
