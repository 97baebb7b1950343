// Package entries persists ledger entries in the per-owner SQLite store.
//
// The repository is owner-agnostic: it reads and writes what it is told.
// Owner scoping and sync-state rules live in the services layer.
package entries
