package stream

import (
	"context"
	"fmt"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
)

// DefaultMinSpanNM is the distance a pile must cover before it is handed to
// the acoustic kernel.
const DefaultMinSpanNM = 1.0

// Decision is the scheduler's verdict on the current pile.
type Decision int

const (
	// DecisionWait retains the pile unmodified until more units arrive.
	DecisionWait Decision = iota

	// DecisionSkip discards the pile: the platform is not in transit.
	DecisionSkip

	// DecisionProcessed means the kernel ran and produced a window.
	DecisionProcessed
)

// Outcome is the result of one scheduling pass. Window and Carry are set
// only for DecisionProcessed.
type Outcome struct {
	Decision Decision
	Window   *domain.ProcessedWindow
	Carry    domain.CarryState
}

// Scheduler decides when the accumulated pile is ready for the acoustic
// kernel, performs the boundary-carry join, and derives the carry state for
// the window after this one.
type Scheduler struct {
	minSpanNM float64
	kernel    ports.Kernel
	logger    ports.Logger
}

// NewScheduler returns a scheduler that releases piles spanning more than
// minSpanNM nautical miles to the kernel.
func NewScheduler(minSpanNM float64, kernel ports.Kernel, logger ports.Logger) *Scheduler {
	return &Scheduler{minSpanNM: minSpanNM, kernel: kernel, logger: logger}
}

// Evaluate runs one scheduling pass over the pile.
//
// A non-positive transect id means the platform is stationary and the pile
// is to be discarded. A pile that has not yet covered the distance threshold
// is retained; NaN distance (telemetry absent) never releases a pile. When
// the pile is ready, the previous window's trail is concatenated ahead of it
// so edge pings get real preceding context instead of truncation, the kernel
// runs over the joined pile, and the next carry state is derived from the
// window's validity mask.
//
// Kernel failures are wrapped as domain.ErrProcessing.
func (s *Scheduler) Evaluate(ctx context.Context, pile, trail *domain.Pile, carry domain.CarryState) (Outcome, error) {
	if pile.Transect <= 0 {
		s.logger.Info("processing skipped: platform not in transit",
			ports.Int("transect", pile.Transect))
		return Outcome{Decision: DecisionSkip}, nil
	}
	if !(pile.SpanNM() > s.minSpanNM) {
		s.logger.Info("processing pending: distance threshold not reached",
			ports.Float64("span_nm", pile.SpanNM()),
			ports.Float64("required_nm", s.minSpanNM))
		return Outcome{Decision: DecisionWait}, nil
	}

	// The carry is keyed on the transect it was derived from: resuming the
	// mile counter must not depend on whether any trail pings were kept.
	joined := pile
	fromMile := 0.0
	if carry.Transect == pile.Transect {
		fromMile = carry.LastMile
		if trail != nil && trail.Transect == pile.Transect {
			joined = domain.Concat(trail, pile)
		}
	}

	s.logger.Info("processing window",
		ports.Int("transect", pile.Transect),
		ports.Int("pings", joined.Pings()),
		ports.Float64("from_nm", fromMile))

	win, err := s.kernel.Process(ctx, joined, fromMile)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", domain.ErrProcessing, err)
	}

	return Outcome{
		Decision: DecisionProcessed,
		Window:   win,
		Carry:    NextCarry(win),
	}, nil
}

// NextCarry derives the carry state for the window following win.
//
// The invalid runs at the edges of win's validity mask are pings the kernel
// could not resolve into a finalised bin: the trailing run still belongs to
// the open bin, and the leading run's width measures how much preceding
// context the processing chain consumes. Their combined width is the number
// of trailing source pings to re-supply to the next window. A fully valid
// mask, and the degenerate fully invalid one, both carry nothing.
func NextCarry(win *domain.ProcessedWindow) domain.CarryState {
	next := domain.CarryState{LastMile: win.ResumeMile, Transect: win.Transect}
	lead := 0
	for lead < len(win.Valid) && !win.Valid[lead] {
		lead++
	}
	if lead == len(win.Valid) {
		return next
	}
	tail := 0
	for i := len(win.Valid) - 1; i >= 0 && !win.Valid[i]; i-- {
		tail++
	}
	next.TrailPings = lead + tail
	return next
}
