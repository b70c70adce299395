package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUnit(pings int) *RawUnit {
	u := &RawUnit{
		Rawfiles: []string{"a.raw"},
		Range:    []float64{10, 20, 30},
		PingTime: make([]time.Time, pings),
		Sv:       make([][]float64, 3),
		NM:       make([]float64, pings),
		KM:       make([]float64, pings),
		Lon:      make([]float64, pings),
		Lat:      make([]float64, pings),
	}
	for i := range u.Sv {
		u.Sv[i] = make([]float64, pings)
	}
	for i := 0; i < pings; i++ {
		u.PingTime[i] = time.Unix(int64(1000+i), 0)
		u.NM[i] = float64(i) * 0.01
		u.KM[i] = u.NM[i] * 1.852
	}
	return u
}

func TestUnitValidate(t *testing.T) {
	assert.NoError(t, testUnit(5).Validate())

	u := testUnit(5)
	u.Rawfiles = nil
	assert.Error(t, u.Validate())

	u = testUnit(5)
	u.PingTime = nil
	assert.Error(t, u.Validate())

	u = testUnit(5)
	u.Sv = u.Sv[:2]
	assert.Error(t, u.Validate(), "sample rows must match range bins")

	u = testUnit(5)
	u.Sv[1] = u.Sv[1][:3]
	assert.Error(t, u.Validate(), "every row must match the sample clock")

	u = testUnit(5)
	u.Range[2] = u.Range[1]
	assert.Error(t, u.Validate(), "range grid must be strictly increasing")
}

func TestUnitAvgSpeedKnots(t *testing.T) {
	u := testUnit(10)
	// 0.09 nm over 9 s.
	assert.InDelta(t, 36, u.AvgSpeedKnots(), 1e-9)

	u.NM = nil
	assert.True(t, math.IsNaN(u.AvgSpeedKnots()))
}

func TestSnapshotKeepsTails(t *testing.T) {
	u := testUnit(10)
	u.Transect = 3
	u.PosTime = make([]time.Time, 20)
	u.PosLon = make([]float64, 20)
	u.PosLat = make([]float64, 20)
	for i := range u.PosTime {
		u.PosTime[i] = time.Unix(int64(1000+i), 0)
		u.PosLon[i] = float64(i)
	}

	s := u.Snapshot()
	assert.Equal(t, u.PingTime[9], s.LastPing)
	assert.Equal(t, 3, s.Transect)
	assert.Len(t, s.PosTime, PosSeedLen)
	assert.Equal(t, 13.0, s.PosLon[0], "tail keeps the youngest fixes")
	assert.Equal(t, u.NM[9], s.LastNM)

	// The snapshot must be detached from the unit's arrays.
	u.Range[0] = -1
	assert.Equal(t, 10.0, s.Range[0])
}

func TestPileJoinAppendsContinuousUnits(t *testing.T) {
	u1 := testUnit(5)
	u1.Transect = 1
	p := Join(nil, u1)
	require.Equal(t, 5, p.Pings())

	u2 := testUnit(7)
	u2.Rawfiles = []string{"b.raw"}
	u2.Continuous = true
	u2.Transect = 1
	p = Join(p, u2)

	assert.Equal(t, 12, p.Pings())
	assert.Equal(t, []string{"a.raw", "b.raw"}, p.Rawfiles)
	for i := range p.Sv {
		assert.Len(t, p.Sv[i], 12)
	}
}

func TestPileJoinRestartsOnDiscontinuity(t *testing.T) {
	u1 := testUnit(5)
	p := Join(nil, u1)

	u2 := testUnit(7)
	u2.Continuous = false
	p = Join(p, u2)

	assert.Equal(t, 7, p.Pings(), "discontinuity discards the buffer")
}

func TestPileSpanNM(t *testing.T) {
	p := Join(nil, testUnit(11))
	assert.InDelta(t, 0.1, p.SpanNM(), 1e-9)
}

func TestPileTail(t *testing.T) {
	p := Join(nil, testUnit(10))

	assert.Nil(t, p.Tail(0))

	tl := p.Tail(3)
	require.Equal(t, 3, tl.Pings())
	assert.Equal(t, p.NM[7], tl.NM[0])
	for i := range tl.Sv {
		assert.Len(t, tl.Sv[i], 3)
	}

	// Oversized requests clamp to the whole pile.
	assert.Equal(t, 10, p.Tail(99).Pings())

	// The tail is a copy, not a view.
	tl.NM[0] = -1
	assert.NotEqual(t, -1.0, p.NM[7])
}

func TestPileConcatPrependsLead(t *testing.T) {
	lead := Join(nil, testUnit(4))
	p := Join(nil, testUnit(6))
	p.Transect = 2

	out := Concat(lead, p)
	require.Equal(t, 10, out.Pings())
	assert.Equal(t, 2, out.Transect)
	assert.Equal(t, lead.PingTime[0], out.PingTime[0])
	for i := range out.Sv {
		assert.Len(t, out.Sv[i], 10)
	}

	assert.Same(t, p, Concat(nil, p))
}

func TestCarryStateReset(t *testing.T) {
	c := CarryState{TrailPings: 12, LastMile: 4, Transect: 2}
	c.Reset()
	assert.Zero(t, c.TrailPings)
	assert.Zero(t, c.LastMile)
	assert.Zero(t, c.Transect)
}
