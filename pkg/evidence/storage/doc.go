// Package storage provides the SQLite evidence backend.
//
// Times are stored as Unix nanoseconds so that range filters compare
// numerically regardless of time zone. Invalid field names are stored as a
// JSON array and matched with json_each.
package storage
