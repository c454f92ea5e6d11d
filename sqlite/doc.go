// Package sqlite provides a safe wrapper for the SQLite C library.
// It exposes connections, prepared statements, parameter binding, and
// row iteration while guarding the resource-lifetime rules the C API
// only enforces at runtime.
//
//   - https://www.sqlite.org/cintro.html
//   - https://www.sqlite.org/c3ref/intro.html
//
// A Conn and the statements prepared from it must be used from a single
// goroutine at a time. Callers that need shared access should go through
// package sqlitepool or the database/sql driver in package sqlitedrv,
// both of which serialize access for you.
package sqlite
