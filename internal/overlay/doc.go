// Package overlay prepares reference images ("templates") for matching and
// redaction.
//
// A Template carries a grayscale copy used by the correlator and a stamp:
// the reference image blurred once at load time. Redaction copies the stamp
// over each occurrence, so the level of obscuration is fixed by the template
// and never by what the frame actually shows.
//
// Resolve expands command-line and config references (files, directories,
// PATH@THRESHOLD) into a list of uniquely named templates.
package overlay
