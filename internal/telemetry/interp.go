package telemetry

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
)

// Default interpolation parameters, matching the acquisition practice the
// engine was tuned against.
const (
	DefaultMaxSpeedKnots = 25.0
	DefaultSmoothWindow  = 51
	DefaultSmoothOrder   = 3
	DefaultSmoothPasses  = 3
	DefaultSeedGapFactor = 5.0
	DefaultMotionMaxWin  = 10
)

// Config tunes the position/motion interpolator.
type Config struct {
	// MaxSpeedKnots is the plausibility ceiling for interpolated platform
	// speed. A peak above it means corrupt telemetry and fails the unit.
	MaxSpeedKnots float64

	// SmoothWindow/SmoothOrder/SmoothPasses control the position smoother.
	// Smoothing is applied unconditionally, whether or not the fixes are
	// noisy; detecting noise robustly and smoothing only then is an open
	// item.
	SmoothWindow int
	SmoothOrder  int
	SmoothPasses int

	// SeedGapFactor bounds the boundary gap (in mean source intervals)
	// within which the previous unit's tail seeds the interpolation.
	SeedGapFactor float64

	// MotionMaxWin is the trailing window for the rolling absolute-motion
	// maximum.
	MotionMaxWin int
}

// DefaultConfig returns the interpolator defaults.
func DefaultConfig() Config {
	return Config{
		MaxSpeedKnots: DefaultMaxSpeedKnots,
		SmoothWindow:  DefaultSmoothWindow,
		SmoothOrder:   DefaultSmoothOrder,
		SmoothPasses:  DefaultSmoothPasses,
		SeedGapFactor: DefaultSeedGapFactor,
		MotionMaxWin:  DefaultMotionMaxWin,
	}
}

// Interpolator resamples raw telemetry onto a unit's ping clock.
type Interpolator struct {
	cfg    Config
	smooth *savgol
	logger ports.Logger
}

// New creates an interpolator with the given configuration.
func New(cfg Config, logger ports.Logger) (*Interpolator, error) {
	if cfg.MaxSpeedKnots <= 0 {
		return nil, fmt.Errorf("interpolator: max speed must be positive")
	}
	sm, err := newSavgol(cfg.SmoothWindow, cfg.SmoothOrder)
	if err != nil {
		return nil, err
	}
	return &Interpolator{cfg: cfg, smooth: sm, logger: logger}, nil
}

// PositionResult is the per-ping position telemetry for one unit, plus the
// smoothed source series kept for seeding the next unit.
type PositionResult struct {
	// Found is false when the unit carried no position telemetry at all;
	// the per-ping arrays are then all NaN and processing continues with
	// degraded fields.
	Found bool

	// Continuous reports whether the interpolation was seeded across the
	// previous unit's boundary. False on a telemetry time breach even when
	// the sample clock itself is continuous.
	Continuous bool

	// Smoothed source series, aligned after the distance derivation.
	SrcTime []time.Time
	SrcLon  []float64
	SrcLat  []float64

	// Per-ping channels on the unit's clock.
	Lon   []float64
	Lat   []float64
	NM    []float64
	KM    []float64
	KPH   []float64
	Knots []float64
}

// Position resamples the unit's raw GPS series onto its ping clock.
//
// The previous unit's tail, when supplied and within the seed gap, is
// prepended to the source series so the interpolation bridges the file
// boundary; the cumulative distance is then re-baselined to continue the
// previous unit's counter plus the great-circle gap between the boundary
// fixes. Without continuity the distance restarts at zero.
//
// Returns domain.ErrTelemetrySpeed (wrapped) when the derived peak speed
// exceeds the ceiling.
func (ip *Interpolator) Position(pingTime, srcTime []time.Time, srcLon, srcLat []float64, prev *domain.UnitTail) (PositionResult, error) {
	res := PositionResult{}
	if len(srcTime) == 0 || len(srcLon) != len(srcTime) || len(srcLat) != len(srcTime) {
		ip.logger.Warn("GPS data not found")
		res.Lon = nanSlice(len(pingTime))
		res.Lat = nanSlice(len(pingTime))
		res.NM = nanSlice(len(pingTime))
		res.KM = nanSlice(len(pingTime))
		res.KPH = nanSlice(len(pingTime))
		res.Knots = nanSlice(len(pingTime))
		return res, nil
	}

	// Seed across the boundary when the previous tail is close enough.
	T := srcTime
	lon := append([]float64(nil), srcLon...)
	lat := append([]float64(nil), srcLat...)
	if prev != nil && len(prev.PosTime) > 0 {
		if ip.withinSeedGap(prev.PosTime[len(prev.PosTime)-1], srcTime) {
			T = append(append([]time.Time(nil), prev.PosTime...), srcTime...)
			lon = append(append([]float64(nil), prev.PosLon...), srcLon...)
			lat = append(append([]float64(nil), prev.PosLat...), srcLat...)
			res.Continuous = true
		} else {
			ip.logger.Warn("time breach in preceding position telemetry")
		}
	}

	// Smooth fixes to suppress position noise. Applied unconditionally.
	for pass := 0; pass < ip.cfg.SmoothPasses; pass++ {
		lat = ip.smooth.Apply(lat)
		lon = ip.smooth.Apply(lon)
	}

	// Piecewise great-circle distance and interval speeds.
	n := len(T)
	km := nanSlice(n)
	nm := nanSlice(n)
	for i := 0; i < n-1; i++ {
		d := haversineKM(lat[i], lon[i], lat[i+1], lon[i+1])
		km[i+1] = d
		nm[i+1] = kmToNM(d)
	}
	tf := EpochSeconds(T)
	kph := make([]float64, n-1)
	knt := make([]float64, n-1)
	peak := 0.0
	for i := 0; i < n-1; i++ {
		dt := tf[i+1] - tf[i]
		kph[i] = km[i+1] / dt * 3600
		knt[i] = nm[i+1] / dt * 3600
		if !math.IsNaN(knt[i]) && knt[i] > peak {
			peak = knt[i]
		}
	}
	if peak > ip.cfg.MaxSpeedKnots {
		return res, fmt.Errorf("%w: peak %.1f kn above %.1f kn ceiling",
			domain.ErrTelemetrySpeed, peak, ip.cfg.MaxSpeedKnots)
	}

	kmCum := nanCumSum(km)
	nmCum := nanCumSum(nm)

	// Drop the first knot so all source arrays share the speed length.
	T = T[1:]
	tf = tf[1:]
	lon = lon[1:]
	lat = lat[1:]
	kmCum = kmCum[1:]
	nmCum = nmCum[1:]

	pf := EpochSeconds(pingTime)
	res.Lon = Resample(tf, lon, pf, true)
	res.Lat = Resample(tf, lat, pf, true)
	res.NM = Resample(tf, nmCum, pf, true)
	res.KM = Resample(tf, kmCum, pf, true)
	res.KPH = Resample(tf, kph, pf, true)
	res.Knots = Resample(tf, knt, pf, true)

	// Re-baseline the cumulative distance: continue the previous counter
	// across the boundary, or restart at zero.
	if res.Continuous && prev != nil {
		gapKM := haversineKM(prev.LastLat, prev.LastLon, res.Lat[0], res.Lon[0])
		base := nanMin(res.KM)
		for i := range res.KM {
			res.KM[i] += -base + prev.LastKM + gapKM
		}
		baseNM := nanMin(res.NM)
		for i := range res.NM {
			res.NM[i] += -baseNM + prev.LastNM + kmToNM(gapKM)
		}
	} else {
		Rebaseline(res.KM)
		Rebaseline(res.NM)
	}

	res.Found = true
	res.SrcTime = T
	res.SrcLon = lon
	res.SrcLat = lat
	return res, nil
}

// MotionResult is the per-ping attitude telemetry for one unit, plus the raw
// source series kept for seeding the next unit.
type MotionResult struct {
	Found bool

	SrcTime  []time.Time
	SrcPitch []float64
	SrcRoll  []float64
	SrcHeave []float64

	Pitch    []float64
	Roll     []float64
	Heave    []float64
	PitchMax []float64
	RollMax  []float64
	HeaveMax []float64
}

// Motion resamples the unit's raw attitude series onto its ping clock,
// including trailing rolling maxima of the absolute motion. Absent motion
// telemetry is non-fatal and yields all-NaN channels.
func (ip *Interpolator) Motion(pingTime, srcTime []time.Time, pitch, roll, heave []float64, prev *domain.UnitTail) MotionResult {
	res := MotionResult{
		Pitch:    nanSlice(len(pingTime)),
		Roll:     nanSlice(len(pingTime)),
		Heave:    nanSlice(len(pingTime)),
		PitchMax: nanSlice(len(pingTime)),
		RollMax:  nanSlice(len(pingTime)),
		HeaveMax: nanSlice(len(pingTime)),
	}
	if len(srcTime) == 0 || len(pitch) != len(srcTime) || len(roll) != len(srcTime) || len(heave) != len(srcTime) {
		return res
	}

	T := srcTime
	p := pitch
	r := roll
	h := heave
	if prev != nil && len(prev.MotTime) > 0 {
		if ip.withinSeedGap(prev.MotTime[len(prev.MotTime)-1], srcTime) {
			T = append(append([]time.Time(nil), prev.MotTime...), srcTime...)
			p = append(append([]float64(nil), prev.MotPitch...), pitch...)
			r = append(append([]float64(nil), prev.MotRoll...), roll...)
			h = append(append([]float64(nil), prev.MotHeave...), heave...)
		} else {
			ip.logger.Warn("time breach in preceding motion telemetry")
		}
	}

	pMax := rollingAbsMax(p, ip.cfg.MotionMaxWin)
	rMax := rollingAbsMax(r, ip.cfg.MotionMaxWin)
	hMax := rollingAbsMax(h, ip.cfg.MotionMaxWin)

	tf := EpochSeconds(T)
	pf := EpochSeconds(pingTime)
	res.Pitch = Resample(tf, p, pf, false)
	res.Roll = Resample(tf, r, pf, false)
	res.Heave = Resample(tf, h, pf, false)
	res.PitchMax = Resample(tf, pMax, pf, false)
	res.RollMax = Resample(tf, rMax, pf, false)
	res.HeaveMax = Resample(tf, hMax, pf, false)

	res.Found = true
	res.SrcTime = T
	res.SrcPitch = p
	res.SrcRoll = r
	res.SrcHeave = h
	return res
}

// withinSeedGap reports whether the gap between the previous tail and the
// current source start is positive and below SeedGapFactor mean intervals.
func (ip *Interpolator) withinSeedGap(prevLast time.Time, srcTime []time.Time) bool {
	if len(srcTime) < 2 {
		return false
	}
	diffs := make([]float64, len(srcTime)-1)
	for i := 1; i < len(srcTime); i++ {
		diffs[i-1] = srcTime[i].Sub(srcTime[i-1]).Seconds()
	}
	rate := stat.Mean(diffs, nil)
	gap := srcTime[0].Sub(prevLast).Seconds()
	return gap > 0 && gap < ip.cfg.SeedGapFactor*rate
}

// Rebaseline shifts a cumulative distance series so it starts at zero.
func Rebaseline(s []float64) {
	base := nanMin(s)
	if math.IsNaN(base) {
		return
	}
	for i := range s {
		s[i] -= base
	}
}
