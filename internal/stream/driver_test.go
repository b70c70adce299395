package stream

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaward-labs/echoline/internal/adapters/kernel"
	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/telemetry"
	"github.com/seaward-labs/echoline/pkg/log"
)

type fakeSource struct{ ids []string }

func (f *fakeSource) List(ctx context.Context) ([]string, error) { return f.ids, nil }
func (f *fakeSource) Resolve(id string) string                   { return id }
func (f *fakeSource) Wait(ctx context.Context) error             { return ctx.Err() }
func (f *fakeSource) Close() error                               { return nil }

type fakeDecoder struct {
	units map[string]*domain.RawUnit
	errs  map[string]error
}

func (f *fakeDecoder) Decode(ctx context.Context, path string) (*domain.RawUnit, error) {
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	return f.units[path], nil
}

func (f *fakeDecoder) Channels() []int { return nil }

type captureReporter struct {
	wins []*domain.ProcessedWindow
	err  error
}

func (c *captureReporter) Emit(ctx context.Context, win *domain.ProcessedWindow) error {
	c.wins = append(c.wins, win)
	return c.err
}

// Synthetic voyage parameters: one ping per second, a GPS fix every other
// second, steaming east along the equator at 20 knots.
const (
	voyPings   = 150
	voyFixes   = 75
	voyKnots   = 20.0
	voySeabed  = -60.0 // uniform water-column Sv, above the swarm threshold
	voyLonRate = voyKnots * 1.852 / 3600 / (6371.0088 * math.Pi / 180)
)

var voyRange = func() []float64 {
	r := make([]float64, 23)
	for i := range r {
		r[i] = 25 + 10*float64(i)
	}
	return r
}()

// voyageUnit builds the k-th acquisition file of a continuous recording.
func voyageUnit(k int) *domain.RawUnit {
	t0 := time.Unix(100000, 0).UTC().Add(time.Duration(k*voyPings) * time.Second)
	u := &domain.RawUnit{
		Rawfiles: []string{string(rune('a'+k)) + ".raw"},
		Range:    append([]float64(nil), voyRange...),
		PingTime: make([]time.Time, voyPings),
		Sv:       make([][]float64, len(voyRange)),
		PosTime:  make([]time.Time, voyFixes),
		PosLon:   make([]float64, voyFixes),
		PosLat:   make([]float64, voyFixes),
	}
	for i := range u.Sv {
		row := make([]float64, voyPings)
		for j := range row {
			row[j] = voySeabed
		}
		u.Sv[i] = row
	}
	for i := 0; i < voyPings; i++ {
		u.PingTime[i] = t0.Add(time.Duration(i) * time.Second)
	}
	for i := 0; i < voyFixes; i++ {
		sec := float64(k*voyPings + 2*i)
		u.PosTime[i] = time.Unix(100000, 0).UTC().Add(time.Duration(2*i+k*voyPings) * time.Second)
		u.PosLon[i] = sec * voyLonRate
		u.PosLat[i] = 0
	}
	return u
}

func newTestDriver(t *testing.T, dec *fakeDecoder, src *fakeSource, rep *captureReporter) *Driver {
	t.Helper()
	logger := log.NewNoopLogger()
	interp, err := telemetry.New(telemetry.DefaultConfig(), logger)
	require.NoError(t, err)
	kern, err := kernel.New(kernel.DefaultConfig(), logger)
	require.NoError(t, err)
	return NewDriver(DriverDeps{
		Source:     src,
		Decoder:    dec,
		Interp:     interp,
		Classifier: NewClassifier(3, logger),
		Scheduler:  NewScheduler(DefaultMinSpanNM, kern, logger),
		Reporter:   rep,
		Logger:     logger,
	}, true)
}

// TestDriverBatchBinsEachMileOnce runs four continuous files through the full
// pipeline. Each file covers about 0.83 nautical miles, so windows fire after
// the second and fourth file; together they must report miles 0, 1 and 2 with
// no repeats and no holes.
func TestDriverBatchBinsEachMileOnce(t *testing.T) {
	units := map[string]*domain.RawUnit{}
	var ids []string
	for k := 0; k < 4; k++ {
		u := voyageUnit(k)
		units[u.Rawfiles[0]] = u
		ids = append(ids, u.Rawfiles[0])
	}
	rep := &captureReporter{}
	d := newTestDriver(t, &fakeDecoder{units: units}, &fakeSource{ids: ids}, rep)

	require.NoError(t, d.Run(context.Background()))
	require.Len(t, rep.wins, 2)

	var marks []float64
	for _, w := range rep.wins {
		assert.Equal(t, 1, w.Transect)
		for b := 0; b < w.Bins(); b++ {
			marks = append(marks, w.MileMarks[b])
			assert.False(t, math.IsNaN(w.BinNASC[b]), "NASC must be defined")
			assert.Greater(t, w.BinNASC[b], 0.0)
			assert.InDelta(t, 100, w.BinPCT[b], 1e-9, "uniform grid is fully usable")
			assert.True(t, math.IsNaN(w.BinSeabed[b]), "no seabed in the water column")
			assert.False(t, w.BinTime[b].IsZero())
			assert.False(t, math.IsNaN(w.BinLon[b]))
		}
	}
	require.Equal(t, []float64{0, 1, 2}, marks)

	assert.Equal(t, 1.0, rep.wins[0].ResumeMile)
	assert.Equal(t, 3.0, rep.wins[1].ResumeMile)
}

// TestDriverRecoversFromBadUnit drops all accumulated state when a unit fails
// to decode and keeps going: the stream never stops on a single bad file.
func TestDriverRecoversFromBadUnit(t *testing.T) {
	units := map[string]*domain.RawUnit{}
	errs := map[string]error{"b.raw": errors.New("truncated datagram")}
	var ids []string
	for k := 0; k < 4; k++ {
		u := voyageUnit(k)
		units[u.Rawfiles[0]] = u
		ids = append(ids, u.Rawfiles[0])
	}
	rep := &captureReporter{}
	d := newTestDriver(t, &fakeDecoder{units: units, errs: errs}, &fakeSource{ids: ids}, rep)

	require.NoError(t, d.Run(context.Background()))

	// Units a and c..d remain: c starts the next transect after the reset,
	// and c+d together cover the threshold again.
	require.Len(t, rep.wins, 1)
	assert.Equal(t, 2, rep.wins[0].Transect)
	assert.Equal(t, []float64{0}, rep.wins[0].MileMarks)
}

// TestDriverFailureKeepsTransectNumbering covers the durable-log identity
// after a mid-stream failure: the bout after the reset must continue the
// transect counter, so no two windows ever share a (transect, mile) key.
func TestDriverFailureKeepsTransectNumbering(t *testing.T) {
	units := map[string]*domain.RawUnit{}
	errs := map[string]error{"c.raw": errors.New("truncated datagram")}
	var ids []string
	for k := 0; k < 5; k++ {
		u := voyageUnit(k)
		units[u.Rawfiles[0]] = u
		ids = append(ids, u.Rawfiles[0])
	}
	rep := &captureReporter{}
	d := newTestDriver(t, &fakeDecoder{units: units, errs: errs}, &fakeSource{ids: ids}, rep)

	require.NoError(t, d.Run(context.Background()))
	require.Len(t, rep.wins, 2)

	assert.Equal(t, 1, rep.wins[0].Transect)
	assert.Equal(t, []float64{0}, rep.wins[0].MileMarks)
	assert.Equal(t, 2, rep.wins[1].Transect, "the bout after the reset advances the counter")
	assert.Equal(t, []float64{0}, rep.wins[1].MileMarks)
}

// scriptedSource replays a fixed sequence of directory listings, one per
// Wait, then cancels.
type scriptedSource struct {
	listings [][]string
	step     int
}

func (s *scriptedSource) List(ctx context.Context) ([]string, error) {
	i := s.step
	if i >= len(s.listings) {
		i = len(s.listings) - 1
	}
	return s.listings[i], nil
}

func (s *scriptedSource) Wait(ctx context.Context) error {
	s.step++
	if s.step >= len(s.listings) {
		return context.Canceled
	}
	return nil
}

func (s *scriptedSource) Resolve(id string) string { return id }
func (s *scriptedSource) Close() error             { return nil }

// warnLogger records warning messages and swallows everything else.
type warnLogger struct {
	warns []string
}

func (l *warnLogger) Debug(msg string, fields ...log.Field) {}
func (l *warnLogger) Info(msg string, fields ...log.Field)  {}
func (l *warnLogger) Error(msg string, fields ...log.Field) {}
func (l *warnLogger) Warn(msg string, fields ...log.Field) {
	l.warns = append(l.warns, msg)
}

// TestDriverLiveDedupesAndHoldsBackNewest exercises the listening loop:
// units present at startup are skipped, the newest pending unit is held back
// until a younger one appears, repeated listings are not reprocessed, and a
// shrinking listing warns without stopping the stream.
func TestDriverLiveDedupesAndHoldsBackNewest(t *testing.T) {
	units := map[string]*domain.RawUnit{}
	for k := 1; k <= 4; k++ {
		u := voyageUnit(k)
		units[u.Rawfiles[0]] = u
	}
	src := &scriptedSource{listings: [][]string{
		{"a.raw"},                                     // present at startup: skipped
		{"a.raw", "b.raw"},                            // b is newest: held back
		{"a.raw", "b.raw", "c.raw"},                   // b processed, c held back
		{"b.raw", "c.raw"},                            // a disappeared: warn, c still held
		{"b.raw", "c.raw", "d.raw", "e.raw", "f.raw"}, // c, d and e processed, f held back
	}}
	warns := &warnLogger{}
	rep := &captureReporter{}

	interp, err := telemetry.New(telemetry.DefaultConfig(), log.NewNoopLogger())
	require.NoError(t, err)
	kern, err := kernel.New(kernel.DefaultConfig(), log.NewNoopLogger())
	require.NoError(t, err)
	dec := &fakeDecoder{units: units}
	d := NewDriver(DriverDeps{
		Source:     src,
		Decoder:    dec,
		Interp:     interp,
		Classifier: NewClassifier(3, log.NewNoopLogger()),
		Scheduler:  NewScheduler(DefaultMinSpanNM, kern, log.NewNoopLogger()),
		Reporter:   rep,
		Logger:     warns,
	}, false)

	require.NoError(t, d.Run(context.Background()))

	// b through e went through the pipeline: one window after c, one after e,
	// with the carry continuing the mile counter across them.
	require.Len(t, rep.wins, 2)
	assert.Equal(t, []float64{0}, rep.wins[0].MileMarks)
	assert.Equal(t, []float64{1, 2}, rep.wins[1].MileMarks)
	assert.Contains(t, warns.warns, "units disappeared from source")
}

// TestDriverDeliveryFailureDoesNotStopStream asserts that a failing reporter
// never aborts the batch or rolls a window back.
func TestDriverDeliveryFailureDoesNotStopStream(t *testing.T) {
	units := map[string]*domain.RawUnit{}
	var ids []string
	for k := 0; k < 2; k++ {
		u := voyageUnit(k)
		units[u.Rawfiles[0]] = u
		ids = append(ids, u.Rawfiles[0])
	}
	rep := &captureReporter{err: errors.New("endpoint down")}
	d := newTestDriver(t, &fakeDecoder{units: units}, &fakeSource{ids: ids}, rep)

	require.NoError(t, d.Run(context.Background()))
	assert.Len(t, rep.wins, 1)
}
