package callstore

import (
	"context"
	"fmt"

	"callwatch/internal/calls"
)

var _ calls.Importer = (*Store)(nil)

// ImportTrunkRecorder stores a trunk-recorder call. Talkgroup, frequency, and
// start time come from the recorder's JSON metadata.
func (s *Store) ImportTrunkRecorder(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	call, err := calls.TrunkRecorderCall(audio, audioName, audioType, system, meta)
	if err != nil {
		return err
	}
	_, err = s.Insert(ctx, call)
	return err
}

// ImportSdrtrunk stores an sdrtrunk call described by its .mbe metadata.
func (s *Store) ImportSdrtrunk(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	call, err := calls.SdrtrunkCall(audio, audioName, audioType, system, meta)
	if err != nil {
		return err
	}
	_, err = s.Insert(ctx, call)
	return err
}

// ImportCall stores a fully resolved call.
func (s *Store) ImportCall(ctx context.Context, call calls.Call) error {
	if call.SourceType == "" {
		call.SourceType = calls.SourceGeneric
	}
	if _, err := s.Insert(ctx, call); err != nil {
		return fmt.Errorf("store %s: %w", call.AudioName, err)
	}
	return nil
}
