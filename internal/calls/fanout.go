package calls

import (
	"context"
	"errors"
)

// Fanout delivers every call to each importer in order. All importers are
// attempted; their errors are joined.
type Fanout []Importer

// NewFanout drops nil importers.
func NewFanout(importers ...Importer) Fanout {
	out := make(Fanout, 0, len(importers))
	for _, imp := range importers {
		if imp != nil {
			out = append(out, imp)
		}
	}
	return out
}

func (f Fanout) ImportTrunkRecorder(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	var errs []error
	for _, imp := range f {
		if err := imp.ImportTrunkRecorder(ctx, audio, audioName, audioType, system, meta); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) ImportSdrtrunk(ctx context.Context, audio []byte, audioName, audioType string, system int, meta map[string]any) error {
	var errs []error
	for _, imp := range f {
		if err := imp.ImportSdrtrunk(ctx, audio, audioName, audioType, system, meta); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) ImportCall(ctx context.Context, call Call) error {
	var errs []error
	for _, imp := range f {
		if err := imp.ImportCall(ctx, call); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
