package kernel

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/pkg/log"
)

// testPile builds a pile of pings 1 s apart with a linear distance counter
// and a uniform Sv grid.
func testPile(pings int, nmSpan, sv float64, ranges []float64) *domain.Pile {
	p := &domain.Pile{
		Rawfiles: []string{"a.raw"},
		Transect: 1,
		Range:    ranges,
		Sv:       make([][]float64, len(ranges)),
		PingTime: make([]time.Time, pings),
		Lon:      make([]float64, pings),
		Lat:      make([]float64, pings),
		NM:       make([]float64, pings),
		KM:       make([]float64, pings),
		Knots:    make([]float64, pings),
	}
	for i := range p.Sv {
		row := make([]float64, pings)
		for j := range row {
			row[j] = sv
		}
		p.Sv[i] = row
	}
	for i := 0; i < pings; i++ {
		p.PingTime[i] = time.Unix(int64(90000+i), 0).UTC()
		frac := float64(i) / float64(pings-1)
		p.NM[i] = frac * nmSpan
		p.KM[i] = p.NM[i] * 1.852
		p.Lon[i] = frac
	}
	return p
}

func layerRanges() []float64 {
	r := make([]float64, 23)
	for i := range r {
		r[i] = 25 + 10*float64(i) // 25..245 m, inside the 20-250 m layer
	}
	return r
}

func newIntegrator(t *testing.T) *Integrator {
	t.Helper()
	k, err := New(DefaultConfig(), log.NewNoopLogger())
	require.NoError(t, err)
	return k
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LayerBottomM = cfg.LayerTopM
	_, err := New(cfg, log.NewNoopLogger())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.BinNM = 0
	_, err = New(cfg, log.NewNoopLogger())
	assert.Error(t, err)
}

func TestProcessFinalisesWholeBinsOnly(t *testing.T) {
	k := newIntegrator(t)

	// 2.4 nautical miles: bins 0 and 1 finalise, bin 2 stays open.
	win, err := k.Process(context.Background(), testPile(241, 2.4, -60, layerRanges()), 0)
	require.NoError(t, err)

	require.Equal(t, 2, win.Bins())
	assert.Equal(t, []float64{0, 1}, win.MileMarks)
	assert.Equal(t, 2.0, win.ResumeMile)

	// Uniform -60 dB everywhere in the layer, no seabed: the usable fraction
	// is 100 % and NASC is the analytic closed form.
	thickness := 250.0 - 20.0
	wantNASC := 4 * math.Pi * 1852 * 1852 * math.Pow(10, -6) * thickness
	for b := 0; b < win.Bins(); b++ {
		assert.InDelta(t, wantNASC, win.BinNASC[b], wantNASC*1e-9)
		assert.InDelta(t, 100, win.BinPCT[b], 1e-9)
		assert.True(t, math.IsNaN(win.BinSeabed[b]))
		assert.False(t, win.BinTime[b].IsZero())
		assert.False(t, math.IsNaN(win.BinLon[b]))
	}

	// Pings in the open bin are invalid; everything before it is valid.
	for i, d := range win.NM {
		assert.Equal(t, d < 2.0, win.Valid[i], "ping %d at %.3f nm", i, d)
	}
}

func TestProcessResumesAtCarriedMile(t *testing.T) {
	k := newIntegrator(t)

	p := testPile(241, 2.4, -60, layerRanges())
	for i := range p.NM {
		p.NM[i] += 3 // the transect already covered three miles
	}
	win, err := k.Process(context.Background(), p, 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 4}, win.MileMarks)
	assert.Equal(t, 5.0, win.ResumeMile)
}

func TestProcessShortPileFinalisesNothing(t *testing.T) {
	k := newIntegrator(t)

	win, err := k.Process(context.Background(), testPile(61, 0.6, -60, layerRanges()), 0)
	require.NoError(t, err)

	assert.Zero(t, win.Bins())
	assert.Equal(t, 0.0, win.ResumeMile)
	for _, v := range win.Valid {
		assert.False(t, v, "no finalised bin means no valid pings")
	}
}

func TestProcessBlanksWeakScatterers(t *testing.T) {
	k := newIntegrator(t)

	// Below the -70 dB swarm threshold: samples are blanked, so the bin mean
	// is effectively zero but still counts as usable.
	win, err := k.Process(context.Background(), testPile(241, 2.4, -80, layerRanges()), 0)
	require.NoError(t, err)

	require.Equal(t, 2, win.Bins())
	for b := 0; b < win.Bins(); b++ {
		assert.Less(t, win.BinNASC[b], 1e-50)
		assert.InDelta(t, 100, win.BinPCT[b], 1e-9)
	}
}

func TestProcessSeabedLimitsIntegration(t *testing.T) {
	k := newIntegrator(t)

	p := testPile(241, 2.4, -60, layerRanges())
	// A hard return at 145 m on every ping.
	for i, r := range p.Range {
		if r == 145 {
			for j := range p.Sv[i] {
				p.Sv[i][j] = -20
			}
		}
	}
	win, err := k.Process(context.Background(), p, 0)
	require.NoError(t, err)

	require.Equal(t, 2, win.Bins())
	wantNASC := 4 * math.Pi * 1852 * 1852 * math.Pow(10, -6) * (145 - 20)
	for b := 0; b < win.Bins(); b++ {
		assert.InDelta(t, 145, win.BinSeabed[b], 1e-9)
		assert.InDelta(t, wantNASC, win.BinNASC[b], wantNASC*1e-9)
		assert.Less(t, win.BinPCT[b], 100.0, "samples at and below the seabed are unusable")
	}

	// The seabed sample itself and everything below is excluded from the
	// feature grid.
	for i, r := range p.Range {
		if r >= 145 {
			assert.True(t, math.IsNaN(win.SvSwarm[i][0]))
		}
	}
}

// subPile restricts a pile to pings [a:b) without copying the sample grid.
func subPile(p *domain.Pile, a, b int) *domain.Pile {
	s := &domain.Pile{
		Rawfiles: p.Rawfiles,
		Transect: p.Transect,
		Range:    p.Range,
		Sv:       make([][]float64, len(p.Sv)),
		PingTime: p.PingTime[a:b],
		Lon:      p.Lon[a:b],
		Lat:      p.Lat[a:b],
		NM:       p.NM[a:b],
		KM:       p.KM[a:b],
		Knots:    p.Knots[a:b],
	}
	for i := range p.Sv {
		s.Sv[i] = p.Sv[i][a:b]
	}
	return s
}

func TestProcessSplitPileMatchesUnsplit(t *testing.T) {
	k := newIntegrator(t)

	// 1/64 nmi per ping keeps every distance and bin edge exactly
	// representable, so the split boundary lands on a knot. Sv ramps through
	// the swarm threshold so the bins carry different, non-trivial integrals.
	whole := testPile(241, 3.75, -60, layerRanges())
	for i := range whole.NM {
		whole.NM[i] = float64(i) / 64
	}
	for i := range whole.Sv {
		for j := range whole.Sv[i] {
			whole.Sv[i][j] = -74 + 0.05*float64(j)
		}
	}

	unsplit, err := k.Process(context.Background(), whole, 0)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 2}, unsplit.MileMarks)

	// Split mid-bin, then re-supply the trailing invalid pings the way the
	// scheduler's carry does.
	first, err := k.Process(context.Background(), subPile(whole, 0, 150), 0)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1}, first.MileMarks)

	trail := 0
	for i := len(first.Valid) - 1; i >= 0 && !first.Valid[i]; i-- {
		trail++
	}
	require.Equal(t, 22, trail, "pings at and past the 2 nmi resume mark")

	second, err := k.Process(context.Background(), subPile(whole, 150-trail, 241), first.ResumeMile)
	require.NoError(t, err)
	require.Equal(t, []float64{2}, second.MileMarks)
	assert.Equal(t, unsplit.ResumeMile, second.ResumeMile)

	// Splitting must be loss- and duplication-free: each bin integrates the
	// same pings either way.
	for b := 0; b < 2; b++ {
		assert.Equal(t, unsplit.BinNASC[b], first.BinNASC[b], "bin %d", b)
		assert.Equal(t, unsplit.BinPCT[b], first.BinPCT[b], "bin %d", b)
	}
	assert.Equal(t, unsplit.BinNASC[2], second.BinNASC[0])
	assert.Equal(t, unsplit.BinPCT[2], second.BinPCT[0])
	assert.InDelta(t, unsplit.BinLon[2], second.BinLon[0], 1e-12)
	assert.Equal(t, unsplit.BinTime[2], second.BinTime[0])
}

func TestProcessFailsWithoutDistance(t *testing.T) {
	k := newIntegrator(t)

	p := testPile(10, 0.1, -60, layerRanges())
	for i := range p.NM {
		p.NM[i] = math.NaN()
	}
	_, err := k.Process(context.Background(), p, 0)
	assert.Error(t, err)
}
