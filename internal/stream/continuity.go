package stream

import (
	"time"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
	"github.com/seaward-labs/echoline/internal/telemetry"
)

// breachFactor is the allowed sample-clock gap across a unit boundary,
// in mean ping intervals of the incoming unit.
const breachFactor = 1.5

// TelemetryState summarises the position interpolation of a unit for the
// continuity decision: whether telemetry was present at all, and whether it
// bridged the boundary to the preceding unit.
type TelemetryState struct {
	Found      bool
	Continuous bool
}

// Classifier decides whether each incoming unit continues the preceding one
// and maintains the signed transect identity across unit boundaries.
type Classifier struct {
	transitKnots float64
	logger       ports.Logger
}

// NewClassifier returns a classifier with the given transit-speed threshold
// in knots. Units whose average speed is below it belong to a stationary
// bout and get a non-positive transect id.
func NewClassifier(transitKnots float64, logger ports.Logger) *Classifier {
	return &Classifier{transitKnots: transitKnots, logger: logger}
}

// Classify fills in u.Continuous and u.Transect against the preceding unit's
// tail, and re-baselines the unit's cumulative distance counters whenever a
// new segment starts. Ambiguous cases resolve to not continuous.
//
// Continuity requires all of: a positive boundary gap no larger than
// breachFactor mean ping intervals, an identical range grid, and telemetry
// that agrees the transect did not change. Any single breach breaks it.
func (c *Classifier) Classify(u *domain.RawUnit, prev *domain.UnitTail, tel TelemetryState) {
	continuous := false
	if prev == nil {
		c.logger.Warn("no preceding unit")
	} else {
		gap := u.PingTime[0].Sub(prev.LastPing)
		breach := time.Duration(breachFactor * float64(u.MeanPingInterval()))
		switch {
		case gap <= 0:
			c.logger.Warn("sample clock not advancing across units",
				ports.Duration("gap", gap))
		case gap > breach:
			c.logger.Warn("time breach in preceding unit",
				ports.Duration("gap", gap),
				ports.Duration("allowed", breach))
		case !rangesEqual(prev.Range, u.Range):
			c.logger.Warn("range grid discrepancy with preceding unit")
		default:
			continuous = true
		}
	}

	// Candidate transect from the telemetry boundary: a bridged boundary
	// keeps the identity, a telemetry gap starts the next one. Without any
	// telemetry the identity is kept and only the clock checks decide.
	var transect int
	switch {
	case prev == nil:
		transect = 1
	case !tel.Found || tel.Continuous:
		transect = abs(prev.Transect)
	default:
		transect = abs(prev.Transect) + 1
	}
	if prev != nil && tel.Found && transect != prev.Transect {
		continuous = false
	}

	// New segment: distances restart at zero and the counter advances.
	if !continuous {
		telemetry.Rebaseline(u.KM)
		telemetry.Rebaseline(u.NM)
		if prev != nil && transect == prev.Transect {
			transect++
		}
	}

	// Stationary bout: negative identity, distances restart. NaN speed
	// (telemetry absent) counts as moving so the clock checks keep ruling.
	if u.AvgSpeedKnots() < c.transitKnots {
		telemetry.Rebaseline(u.KM)
		telemetry.Rebaseline(u.NM)
		switch {
		case prev == nil:
			transect = 0
		case prev.Transect > 0:
			transect = -prev.Transect
		default:
			transect = prev.Transect
		}
	} else if prev != nil && transect > 0 && prev.Transect <= 0 {
		// Just went off station: next transect, fresh distance counter.
		transect++
		telemetry.Rebaseline(u.KM)
		telemetry.Rebaseline(u.NM)
	}

	u.Continuous = continuous
	u.Transect = transect
}

// rangesEqual reports whether two range grids are identical: same length and
// every bin edge equal.
func rangesEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
