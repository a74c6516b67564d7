// Package daemon runs the watch pipeline as a single long-lived instance.
//
// A Daemon holds an advisory file lock so two processes never import the same
// recordings twice, starts one subscription per configured directory, and
// tears the pipeline down in order on shutdown.
package daemon
