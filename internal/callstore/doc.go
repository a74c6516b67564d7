// Package callstore persists imported calls in SQLite.
//
// The Store implements calls.Importer: trunk-recorder and sdrtrunk imports
// derive talkgroup, frequency, and start time from their companion metadata
// before the call row is written. Busy databases are retried with a short
// backoff; schema changes are versioned.
package callstore
