package testsupport

import (
	"context"
	"sync"

	"callwatch/internal/calls"
)

// ImportKind names the importer method that received a call.
type ImportKind string

const (
	ImportTrunkRecorder ImportKind = "trunk-recorder"
	ImportSdrtrunk      ImportKind = "sdrtrunk"
	ImportGeneric       ImportKind = "generic"
)

// Import is one recorded importer invocation.
type Import struct {
	Kind      ImportKind
	Audio     []byte
	AudioName string
	AudioType string
	System    int
	Meta      map[string]any
	Call      calls.Call
}

// RecordingImporter is a calls.Importer that remembers every invocation.
type RecordingImporter struct {
	// Err is returned from every import.
	Err error

	mu      sync.Mutex
	imports []Import
	signal  chan struct{}
}

// NewRecordingImporter returns an importer with an empty history.
func NewRecordingImporter() *RecordingImporter {
	return &RecordingImporter{signal: make(chan struct{}, 64)}
}

func (r *RecordingImporter) record(imp Import) error {
	r.mu.Lock()
	r.imports = append(r.imports, imp)
	err := r.Err
	r.mu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
	return err
}

func (r *RecordingImporter) ImportTrunkRecorder(_ context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	return r.record(Import{Kind: ImportTrunkRecorder, Audio: audio, AudioName: audioName, AudioType: audioType, System: system, Meta: meta})
}

func (r *RecordingImporter) ImportSdrtrunk(_ context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	return r.record(Import{Kind: ImportSdrtrunk, Audio: audio, AudioName: audioName, AudioType: audioType, System: system, Meta: meta})
}

func (r *RecordingImporter) ImportCall(_ context.Context, call calls.Call) error {
	return r.record(Import{
		Kind:      ImportGeneric,
		Audio:     call.Audio,
		AudioName: call.AudioName,
		AudioType: call.AudioType,
		System:    call.System,
		Call:      call,
	})
}

// Imports returns a snapshot of recorded invocations.
func (r *RecordingImporter) Imports() []Import {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Import(nil), r.imports...)
}

// Signal receives a value after each import.
func (r *RecordingImporter) Signal() <-chan struct{} {
	return r.signal
}
