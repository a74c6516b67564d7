// Package daemonrun wires configuration, logging, call sinks, and the watch
// backend into a running daemon process.
package daemonrun
