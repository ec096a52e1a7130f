// Package transcode runs the optional AV1 pass over a redacted output using
// the drapto library. Drapto events are forwarded to the structured logger
// under the "transcode" component.
package transcode
