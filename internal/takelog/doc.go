// Package takelog persists an audit trail of capture attempts in SQLite.
//
// The manifest only records successful saves; the take log additionally keeps
// empty captures and failed persists so an operator can review a session
// afterwards. The log is advisory: failures to write it are logged and never
// interrupt recording.
//
// Schema changes bump schemaVersion; operators delete the database file to
// adopt a new schema.
package takelog
