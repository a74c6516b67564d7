// Package main hosts the callwatch CLI entrypoint and command graph.
//
// The Cobra command tree starts the watch daemon, scaffolds and validates
// configuration, and prints the configured watches and recently stored calls.
// Wiring lives in internal/daemonrun; commands here stay thin.
package main
