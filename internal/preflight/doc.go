// Package preflight provides readiness checks for the directories and
// services callwatch depends on.
//
// The daemon logs failed checks at startup and keeps going; "callwatch config
// validate" prints every result. Checks for disabled features are skipped.
package preflight
