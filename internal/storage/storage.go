package storage

import (
	"context"
	"errors"

	"configSync/internal/model"
)

// Sink records the outcome of a reconciliation run.
type Sink interface {
	PutRun(ctx context.Context, run model.RunRecord) error
}

// MultiSink fans a run record out to every sink.
type MultiSink []Sink

// PutRun writes to all sinks and joins their errors.
func (m MultiSink) PutRun(ctx context.Context, run model.RunRecord) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutRun(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
