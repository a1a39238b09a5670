// Package registry persists providers, their resolution actions, and their
// matching rules in SQLite, and serves the ordered rule snapshots the
// identification engine scans. Writes go through transactions so a snapshot
// never observes a half-registered provider.
package registry
