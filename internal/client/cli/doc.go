// Package cli is the spendkeeper command-line client.
//
// Every invocation rebuilds its state from disk: the remembered owner is
// resumed from the data dir, their store is opened for the duration of the
// command and closed again. Entries are written locally first and reach the
// server only through sync.
//
// Typical flow:
//
//	spendkeeper register a@x.com
//	spendkeeper add --date 01-01-2025 --amount -50 --main Food
//	spendkeeper sync
//
// The shell command wraps the same commands in an interactive loop.
package cli
