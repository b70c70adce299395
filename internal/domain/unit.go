package domain

import (
	"fmt"
	"time"
)

// RawUnit is one decoded acquisition file's worth of samples: the calibrated
// volume-scattering grid, its sample clock and range grid, the per-ping
// telemetry interpolated onto that clock, and the raw telemetry series at
// their native rate.
//
// Continuous and Transect are zero-valued after decoding; the continuity
// classifier fills them in against the preceding unit.
type RawUnit struct {
	// Rawfiles lists the source file names folded into this unit.
	Rawfiles []string

	// Continuous reports whether this unit is a direct continuation of the
	// preceding one. Set by the continuity classifier.
	Continuous bool

	// Transect is the signed transect identity: positive when the platform
	// is underway, zero or negative when stationary. Set by the classifier.
	Transect int

	// Sv is the calibrated volume-scattering grid, indexed [range bin][ping].
	Sv [][]float64

	// AlongAngle and AthwartAngle are split-beam angles with the same shape
	// as Sv. May be nil when the transducer does not report angles.
	AlongAngle   [][]float64
	AthwartAngle [][]float64

	// Alpha is the absorption coefficient in dB/m applied during calibration.
	Alpha float64

	// Range is the strictly increasing range grid in metres, one entry per
	// Sv row.
	Range []float64

	// PingTime is the sample clock, one entry per Sv column.
	PingTime []time.Time

	// Per-ping telemetry interpolated onto PingTime. NaN where telemetry was
	// absent.
	Lon   []float64
	Lat   []float64
	NM    []float64 // cumulative distance, nautical miles
	KM    []float64 // cumulative distance, kilometres
	KPH   []float64 // speed, km/h
	Knots []float64 // speed, knots

	// Per-ping motion interpolated onto PingTime.
	Pitch []float64
	Roll  []float64
	Heave []float64

	// Per-ping rolling maxima of absolute motion, for data-quality flags.
	PitchMax []float64
	RollMax  []float64
	HeaveMax []float64

	// Raw position telemetry at its native (lower) rate, after smoothing.
	PosTime []time.Time
	PosLon  []float64
	PosLat  []float64

	// Raw motion telemetry at its native rate.
	MotTime  []time.Time
	MotPitch []float64
	MotRoll  []float64
	MotHeave []float64
}

// Pings returns the number of sample columns in the unit.
func (u *RawUnit) Pings() int {
	return len(u.PingTime)
}

// Validate checks the structural invariants of a decoded unit.
// Units failing validation must be discarded before classification.
func (u *RawUnit) Validate() error {
	if len(u.Rawfiles) == 0 {
		return fmt.Errorf("raw unit has no source file")
	}
	if len(u.PingTime) == 0 {
		return fmt.Errorf("raw unit %s has no pings", u.Rawfiles[0])
	}
	if len(u.Range) == 0 {
		return fmt.Errorf("raw unit %s has an empty range grid", u.Rawfiles[0])
	}
	if len(u.Sv) != len(u.Range) {
		return fmt.Errorf("raw unit %s: %d sample rows for %d range bins",
			u.Rawfiles[0], len(u.Sv), len(u.Range))
	}
	for i, row := range u.Sv {
		if len(row) != len(u.PingTime) {
			return fmt.Errorf("raw unit %s: row %d has %d pings, clock has %d",
				u.Rawfiles[0], i, len(row), len(u.PingTime))
		}
	}
	for i := 1; i < len(u.Range); i++ {
		if u.Range[i] <= u.Range[i-1] {
			return fmt.Errorf("raw unit %s: range grid not strictly increasing at bin %d",
				u.Rawfiles[0], i)
		}
	}
	return nil
}

// MeanPingInterval returns the mean spacing of the sample clock.
func (u *RawUnit) MeanPingInterval() time.Duration {
	if len(u.PingTime) < 2 {
		return 0
	}
	span := u.PingTime[len(u.PingTime)-1].Sub(u.PingTime[0])
	return span / time.Duration(len(u.PingTime)-1)
}

// AvgSpeedKnots returns the average platform speed over the unit, derived
// from the distance covered and the elapsed clock. NaN when telemetry is
// absent or the unit spans no time.
func (u *RawUnit) AvgSpeedKnots() float64 {
	n := len(u.PingTime)
	if n < 2 || len(u.NM) != n {
		return nan()
	}
	hours := u.PingTime[n-1].Sub(u.PingTime[0]).Hours()
	if hours <= 0 {
		return nan()
	}
	return (u.NM[n-1] - u.NM[0]) / hours
}

// UnitTail is the snapshot of a unit kept for continuity checks against the
// next one. It carries only the clock boundaries, the range grid and the
// trailing telemetry samples, so the previous unit's sample grid can be
// released as soon as it is folded into the pile.
type UnitTail struct {
	LastPing time.Time
	Range    []float64
	Transect int

	// Trailing raw telemetry used to seed interpolation across the boundary.
	PosTime []time.Time
	PosLon  []float64
	PosLat  []float64

	MotTime  []time.Time
	MotPitch []float64
	MotRoll  []float64
	MotHeave []float64

	// Last interpolated fix and distance counters, for re-baselining.
	LastLon float64
	LastLat float64
	LastNM  float64
	LastKM  float64
}

// Tail lengths kept for seeding interpolation across a unit boundary.
const (
	PosSeedLen = 7
	MotSeedLen = 14
)

// Snapshot builds the UnitTail for this unit. The snapshot copies its slices
// so the unit's own arrays can be released.
func (u *RawUnit) Snapshot() *UnitTail {
	t := &UnitTail{
		LastPing: u.PingTime[len(u.PingTime)-1],
		Range:    append([]float64(nil), u.Range...),
		Transect: u.Transect,
		PosTime:  tailTimes(u.PosTime, PosSeedLen),
		PosLon:   tailFloats(u.PosLon, PosSeedLen),
		PosLat:   tailFloats(u.PosLat, PosSeedLen),
		MotTime:  tailTimes(u.MotTime, MotSeedLen),
		MotPitch: tailFloats(u.MotPitch, MotSeedLen),
		MotRoll:  tailFloats(u.MotRoll, MotSeedLen),
		MotHeave: tailFloats(u.MotHeave, MotSeedLen),
		LastLon:  nan(),
		LastLat:  nan(),
		LastNM:   nan(),
		LastKM:   nan(),
	}
	if n := len(u.Lon); n > 0 {
		t.LastLon = u.Lon[n-1]
		t.LastLat = u.Lat[n-1]
		t.LastNM = u.NM[n-1]
		t.LastKM = u.KM[n-1]
	}
	return t
}

func tailFloats(s []float64, n int) []float64 {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return append([]float64(nil), s...)
}

func tailTimes(s []time.Time, n int) []time.Time {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return append([]time.Time(nil), s...)
}
