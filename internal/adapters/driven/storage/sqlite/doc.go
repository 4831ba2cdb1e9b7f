// Package sqlite persists the manual registry in SQLite.
//
// It uses modernc.org/sqlite, a pure Go driver, so the binary needs no CGO.
// One database file holds:
//
//   - manuals: registered manuals and their ingest outcome
//   - ingest_runs: one row per ingest attempt
//   - app_state: small application values such as the active manual
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory, one NNN_name.up.sql / .down.sql pair per version.
//
// # Data Location
//
// By default the database is <home>/data/manualqa.db, where home is
// $MANUALQA_HOME or ~/.manualqa.
package sqlite
