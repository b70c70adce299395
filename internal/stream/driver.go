package stream

import (
	"context"
	"errors"
	"math"
	"runtime/debug"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
	"github.com/seaward-labs/echoline/internal/telemetry"
)

// DriverDeps are the collaborators wired into a Driver.
type DriverDeps struct {
	Source     ports.UnitSource
	Decoder    ports.Decoder
	Interp     *telemetry.Interpolator
	Classifier *Classifier
	Scheduler  *Scheduler
	Reporter   ports.Reporter
	Logger     ports.Logger
}

// Driver is the outer control loop: it feeds decoded units through the
// interpolator, classifier, pile and scheduler, forwards processed windows
// to reporting, and owns per-unit failure recovery.
//
// All loop state lives on the driver and is touched by a single goroutine;
// Run must not be called concurrently.
type Driver struct {
	source     ports.UnitSource
	decoder    ports.Decoder
	interp     *telemetry.Interpolator
	classifier *Classifier
	scheduler  *Scheduler
	reporter   ports.Reporter
	logger     ports.Logger
	once       bool

	// Loop state carried between units.
	prev  *domain.UnitTail
	pile  *domain.Pile
	trail *domain.Pile
	carry domain.CarryState
}

// NewDriver builds a driver. With once set it processes the source's current
// listing as a batch and returns; otherwise it listens for new units until
// the context is cancelled.
func NewDriver(deps DriverDeps, once bool) *Driver {
	return &Driver{
		source:     deps.Source,
		decoder:    deps.Decoder,
		interp:     deps.Interp,
		classifier: deps.Classifier,
		scheduler:  deps.Scheduler,
		reporter:   deps.Reporter,
		logger:     deps.Logger,
		once:       once,
	}
}

// Run executes the driver loop until the batch is exhausted or the context
// is cancelled. Cancellation is a normal stop, not an error.
func (d *Driver) Run(ctx context.Context) error {
	if d.once {
		return d.runBatch(ctx)
	}
	return d.runLive(ctx)
}

// runBatch processes every unit currently listed, oldest first.
func (d *Driver) runBatch(ctx context.Context) error {
	ids, err := d.source.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		d.logger.Warn("no units found in source")
		return nil
	}
	d.logger.Info("processing batch", ports.Int("units", len(ids)))
	for _, id := range ids {
		if ctx.Err() != nil {
			return nil
		}
		d.processUnit(ctx, id)
	}
	return nil
}

// runLive polls the source for new units. Units present at startup belong to
// an earlier session and are skipped; the newest pending unit is held back
// until a younger one appears, since the instrument may still be writing it.
func (d *Driver) runLive(ctx context.Context) error {
	initial, err := d.source.List(ctx)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(initial))
	for _, id := range initial {
		done[id] = true
	}
	lastCount := len(initial)
	d.logger.Info("listening for new units", ports.Int("present", lastCount))

	for {
		if err := d.source.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		ids, err := d.source.List(ctx)
		if err != nil {
			d.logger.Error("listing units failed", ports.Err(err))
			continue
		}
		if len(ids) < lastCount {
			d.logger.Warn("units disappeared from source",
				ports.Int("before", lastCount),
				ports.Int("now", len(ids)))
		}
		lastCount = len(ids)

		var pending []string
		for _, id := range ids {
			if !done[id] {
				pending = append(pending, id)
			}
		}
		if len(pending) > 0 {
			d.logger.Info("units pending", ports.Strings("units", pending))
		}
		for len(pending) > 1 {
			id := pending[0]
			pending = pending[1:]
			done[id] = true
			d.processUnit(ctx, id)
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

// processUnit runs one unit through the pipeline. Any error or panic is
// isolated here: the event is logged with the unit's identity and the
// accumulated state is discarded, so the next unit starts a fresh pile. The
// stream itself never stops on a single unit's failure.
func (d *Driver) processUnit(ctx context.Context, id string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while processing unit",
				ports.String("unit", id),
				ports.Any("panic", r),
				ports.String("stack", string(debug.Stack())))
			d.reset()
		}
	}()

	if err := d.ingest(ctx, d.source.Resolve(id)); err != nil {
		d.logger.Error("failed to process unit",
			ports.String("unit", id),
			ports.Err(err))
		d.reset()
	}
}

// ingest is the per-unit transaction: decode, interpolate telemetry,
// classify continuity, fold into the pile, schedule, and report.
func (d *Driver) ingest(ctx context.Context, path string) error {
	u, err := d.decoder.Decode(ctx, path)
	if err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}

	pos, err := d.interp.Position(u.PingTime, u.PosTime, u.PosLon, u.PosLat, d.prev)
	if err != nil {
		return err
	}
	u.Lon, u.Lat = pos.Lon, pos.Lat
	u.NM, u.KM = pos.NM, pos.KM
	u.KPH, u.Knots = pos.KPH, pos.Knots

	mot := d.interp.Motion(u.PingTime, u.MotTime, u.MotPitch, u.MotRoll, u.MotHeave, d.prev)
	u.Pitch, u.Roll, u.Heave = mot.Pitch, mot.Roll, mot.Heave
	u.PitchMax, u.RollMax, u.HeaveMax = mot.PitchMax, mot.RollMax, mot.HeaveMax

	// The smoothed, boundary-seeded source series replace the raw ones so
	// the next unit seeds from what was actually interpolated.
	u.PosTime, u.PosLon, u.PosLat = pos.SrcTime, pos.SrcLon, pos.SrcLat
	u.MotTime = mot.SrcTime
	u.MotPitch, u.MotRoll, u.MotHeave = mot.SrcPitch, mot.SrcRoll, mot.SrcHeave

	d.classifier.Classify(u, d.prev, TelemetryState{
		Found:      pos.Found,
		Continuous: pos.Continuous,
	})
	d.prev = u.Snapshot()

	d.pile = domain.Join(d.pile, u)
	if !u.Continuous {
		// A new segment never inherits stale boundary state.
		d.trail = nil
		d.carry.Reset()
	}

	out, err := d.scheduler.Evaluate(ctx, d.pile, d.trail, d.carry)
	if err != nil {
		return err
	}
	switch out.Decision {
	case DecisionSkip:
		d.pile = nil
		d.trail = nil
		d.carry.Reset()
	case DecisionWait:
		// Pile retained as is.
	case DecisionProcessed:
		d.trail = d.pile.Tail(out.Carry.TrailPings)
		d.carry = out.Carry
		d.pile = nil
		if err := d.reporter.Emit(ctx, out.Window); err != nil {
			// Delivery failures never roll back the window.
			d.logger.Error("report delivery failed", ports.Err(err))
		}
	}
	return nil
}

// reset discards accumulated loop state after a unit-level failure: a forced
// discontinuity. The transect counter survives so the next bout cannot reuse
// an identity already present in the durable log; everything else, including
// the telemetry seed tails, is dropped. The zero LastPing makes the boundary
// gap saturate, so the next unit can never classify as continuous.
func (d *Driver) reset() {
	if d.prev != nil {
		d.prev = &domain.UnitTail{
			Transect: d.prev.Transect,
			LastLon:  math.NaN(),
			LastLat:  math.NaN(),
			LastNM:   math.NaN(),
			LastKM:   math.NaN(),
		}
	}
	d.pile = nil
	d.trail = nil
	d.carry.Reset()
}
