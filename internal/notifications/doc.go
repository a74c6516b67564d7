// Package notifications pushes operator alerts about the watch pipeline.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Callers publish an
// Event with a Payload and never deal with HTTP details.
package notifications
