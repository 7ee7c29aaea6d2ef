// Package database opens the SQLite database that lookup rules query.
//
// The pure-Go modernc.org/sqlite driver is used, so no cgo toolchain is
// needed. An in-memory DSN is pinned to a single connection because every
// SQLite connection to ":memory:" sees its own empty database.
package database
