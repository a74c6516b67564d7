// Package calls defines the call record handed to ingestion backends and the
// Importer contract those backends implement.
package calls

import (
	"context"
	"time"
)

// Source types a watch can be configured with.
const (
	SourceTrunkRecorder = "trunk-recorder"
	SourceSdrtrunk      = "sdrtrunk"
	SourceGeneric       = "generic"
)

// Call is one recorded radio transmission ready for ingestion.
type Call struct {
	Audio     []byte
	AudioName string
	AudioType string
	DateTime  time.Time
	// Frequency is in Hz; nil when unknown.
	Frequency *int
	System    int
	Talkgroup int
	// Meta holds the parsed companion metadata of trunk-recorder and
	// sdrtrunk recordings.
	Meta       map[string]any
	SourceType string
	SourcePath string
}

// Importer ingests calls. Implementations must be safe for concurrent use:
// every recording is handled on its own goroutine.
type Importer interface {
	// ImportTrunkRecorder ingests a trunk-recorder call; meta is the parsed
	// <name>.json file.
	ImportTrunkRecorder(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error
	// ImportSdrtrunk ingests an sdrtrunk call; meta is the parsed <name>.mbe file.
	ImportSdrtrunk(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error
	// ImportCall ingests a call whose fields are fully resolved.
	ImportCall(ctx context.Context, call Call) error
}
