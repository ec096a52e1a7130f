// Package window implements the read-ahead match cache.
//
// Frames are split into windows of a fixed size. The last frame of each
// window (its boundary) is always fully matched. Comparing it with the
// previous boundary decides how the frames in between are treated:
//
//   - a template absent at both boundaries is skipped for the whole window;
//   - a template with identical occurrences at both boundaries reuses the
//     previous boundary's occurrences;
//   - any other template that matched at either boundary is re-matched on
//     every intermediate frame.
//
// The first window's previous boundary is empty. An overlay visible only
// between two boundaries where it is absent is not redacted.
package window
