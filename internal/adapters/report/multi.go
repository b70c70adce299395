package report

import (
	"context"
	"errors"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
)

// Multi fans a window out to several sinks in order. Every sink sees the
// window even when an earlier one fails; failures are joined into one error
// so a durable sink is never rolled back by a flaky one after it.
type Multi struct {
	sinks []ports.Reporter
}

// NewMulti builds a fan-out over sinks. Order matters: durable sinks should
// come before best-effort ones so the uplink drains what the store holds.
func NewMulti(sinks ...ports.Reporter) *Multi {
	return &Multi{sinks: sinks}
}

// Emit delivers the window to every sink.
func (m *Multi) Emit(ctx context.Context, win *domain.ProcessedWindow) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, win); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
