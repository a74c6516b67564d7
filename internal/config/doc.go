// Package config loads, normalizes, and validates callwatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CALLWATCH_NTFY_TOPIC. Directory watch entries are decoded loosely: their
// directory, extension, system, talkgroup, and frequency values keep whatever
// TOML type the operator wrote so the watch layer can decide how to treat them.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
