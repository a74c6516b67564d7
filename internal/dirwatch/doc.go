// Package dirwatch turns recordings dropped into watched directories into
// imported calls.
//
// A Manager subscribes to each configured directory and filters new files by
// extension. The Dispatcher resolves system and talkgroup for each file and
// routes it by recorder flavor: trunk-recorder and sdrtrunk recordings wait a
// settle delay for their companion metadata file, generic recordings are
// imported immediately. Cleanup removes handled files when the watch asks for it.
package dirwatch
