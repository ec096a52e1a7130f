// Package history keeps a SQLite ledger of redaction runs.
//
// Each run is recorded when it starts and updated once the pipeline returns,
// so an interrupted process leaves a row in the running state. Per-template
// rows carry the scheduler counters (extract calls, reused and skipped
// frames) that show how much matching the read-ahead windows avoided.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema.
package history
