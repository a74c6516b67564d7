// Package mqttpub announces imported calls on an MQTT broker.
//
// Each call is wrapped in a CloudEvents JSON envelope and published to a
// topic derived from the configured pattern, where {system}, {talkgroup},
// and {source} are replaced with the call's values. Audio bytes are not
// published; subscribers receive the call metadata and audio size.
package mqttpub
