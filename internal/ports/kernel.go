package ports

import (
	"context"

	"github.com/seaward-labs/echoline/internal/domain"
)

// Kernel runs the acoustic processing chain over one pile and summarises it
// into whole-mile distance bins.
//
// The pile handed to Process already includes any boundary-carry pings; the
// scheduler owns the carry join. Deterministic: identical inputs produce
// identical windows. Any internal failure surfaces as a single error, which
// the driver wraps as domain.ErrProcessing.
type Kernel interface {
	// Process summarises the pile into distance bins starting at fromMile.
	// The returned window's Valid mask must mark the pings that received
	// every stage without edge truncation.
	Process(ctx context.Context, pile *domain.Pile, fromMile float64) (*domain.ProcessedWindow, error)
}
