// Package config loads, normalizes, and validates veil configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VEIL_FFMPEG. The Config type centralizes every knob the redaction pipeline
// and CLI need: matching thresholds, the read-ahead window size, stamp blur,
// encoder parameters, and templates declared ahead of time.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
