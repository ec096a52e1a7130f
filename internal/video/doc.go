// Package video defines the frame type and the decoder/encoder contracts
// the redaction pipeline runs against, plus ffmpeg-backed implementations.
//
// FileSource probes a container with ffprobe and opens any number of
// independent decoders, each an ffmpeg subprocess emitting raw RGBA frames.
// FileSink starts an ffmpeg subprocess that reads raw RGBA frames on stdin
// and muxes them, optionally together with the source audio, into the output
// container. Encoders reject frames that do not arrive in index order.
package video
