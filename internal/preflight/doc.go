// Package preflight provides readiness checks for the binaries and
// filesystem paths veil depends on.
//
// These checks run in two contexts:
//   - "veil run" calls RunAll before opening the input and refuses to start
//     when Err reports a failure, so a missing ffmpeg or a full disk is
//     caught before any frame is decoded.
//   - "veil check" prints every result as a table.
//
// Transcode checks are skipped when the AV1 pass is disabled.
package preflight
