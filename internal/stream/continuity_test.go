package stream

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/pkg/log"
)

var testRange = []float64{25, 35, 45}

// clockUnit builds a minimal unit with pings 1 s apart starting at t0 and a
// linear distance counter running from nm0 over nmSpan nautical miles.
func clockUnit(t0 time.Time, pings int, nm0, nmSpan float64) *domain.RawUnit {
	u := &domain.RawUnit{
		Rawfiles: []string{"unit.raw"},
		Range:    append([]float64(nil), testRange...),
		PingTime: make([]time.Time, pings),
		NM:       make([]float64, pings),
		KM:       make([]float64, pings),
		Lon:      make([]float64, pings),
		Lat:      make([]float64, pings),
	}
	for i := 0; i < pings; i++ {
		u.PingTime[i] = t0.Add(time.Duration(i) * time.Second)
		frac := float64(i) / float64(pings-1)
		u.NM[i] = nm0 + frac*nmSpan
		u.KM[i] = u.NM[i] * 1.852
	}
	return u
}

func TestClassifyFirstUnitStartsTransectOne(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u := clockUnit(time.Unix(1000, 0), 10, 5, 0.05) // 20 kn
	c.Classify(u, nil, TelemetryState{Found: true, Continuous: false})

	assert.False(t, u.Continuous)
	assert.Equal(t, 1, u.Transect)
	assert.Equal(t, 0.0, u.NM[0], "distance must restart at zero")
}

func TestClassifyContinuousFollowOn(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u1 := clockUnit(time.Unix(1000, 0), 10, 0, 0.05)
	c.Classify(u1, nil, TelemetryState{Found: true})
	prev := u1.Snapshot()

	// Next unit starts one ping interval after the previous one ended.
	u2 := clockUnit(u1.PingTime[9].Add(time.Second), 10, 0.05, 0.05)
	c.Classify(u2, prev, TelemetryState{Found: true, Continuous: true})

	assert.True(t, u2.Continuous)
	assert.Equal(t, 1, u2.Transect)
	assert.Equal(t, 0.05, u2.NM[0], "distance counter must not be rebaselined")
}

func TestClassifyTimeBreachBreaksContinuity(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u1 := clockUnit(time.Unix(1000, 0), 10, 0, 0.05)
	c.Classify(u1, nil, TelemetryState{Found: true})
	prev := u1.Snapshot()

	// Gap of 10 s against a 1 s ping interval.
	u2 := clockUnit(u1.PingTime[9].Add(10*time.Second), 10, 0.05, 0.05)
	c.Classify(u2, prev, TelemetryState{Found: true, Continuous: false})

	assert.False(t, u2.Continuous)
	assert.Equal(t, 2, u2.Transect)
	assert.Equal(t, 0.0, u2.NM[0])
}

func TestClassifyNonAdvancingClockBreaksContinuity(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u1 := clockUnit(time.Unix(1000, 0), 10, 0, 0.05)
	c.Classify(u1, nil, TelemetryState{Found: true})
	prev := u1.Snapshot()

	// Same start as the previous unit's last ping: gap <= 0.
	u2 := clockUnit(u1.PingTime[9], 10, 0.05, 0.05)
	c.Classify(u2, prev, TelemetryState{Found: true, Continuous: true})

	assert.False(t, u2.Continuous)
}

func TestClassifyRangeGridChangeBreaksContinuity(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u1 := clockUnit(time.Unix(1000, 0), 10, 0, 0.05)
	c.Classify(u1, nil, TelemetryState{Found: true})
	prev := u1.Snapshot()

	u2 := clockUnit(u1.PingTime[9].Add(time.Second), 10, 0.05, 0.05)
	u2.Range[2] += 1 // the instrument was reconfigured
	c.Classify(u2, prev, TelemetryState{Found: true, Continuous: true})

	assert.False(t, u2.Continuous)
	// Telemetry kept the identity, so the counter advances instead.
	assert.Equal(t, 2, u2.Transect)
}

func TestClassifyTelemetryGapVetoesContinuity(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u1 := clockUnit(time.Unix(1000, 0), 10, 0, 0.05)
	c.Classify(u1, nil, TelemetryState{Found: true})
	prev := u1.Snapshot()

	// Clock and ranges agree, but the position stream did not bridge.
	u2 := clockUnit(u1.PingTime[9].Add(time.Second), 10, 0.05, 0.05)
	c.Classify(u2, prev, TelemetryState{Found: true, Continuous: false})

	assert.False(t, u2.Continuous)
	assert.Equal(t, 2, u2.Transect)
}

func TestClassifyWithoutTelemetryClockRules(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u1 := clockUnit(time.Unix(1000, 0), 10, 0, 0.05)
	c.Classify(u1, nil, TelemetryState{Found: true})
	prev := u1.Snapshot()

	u2 := clockUnit(u1.PingTime[9].Add(time.Second), 10, 0.05, 0.05)
	// NaN distance means no telemetry and an undefined average speed, which
	// counts as moving.
	for i := range u2.NM {
		u2.NM[i] = math.NaN()
		u2.KM[i] = math.NaN()
	}
	c.Classify(u2, prev, TelemetryState{Found: false})

	assert.True(t, u2.Continuous)
	assert.Equal(t, 1, u2.Transect)
}

func TestClassifyStationaryAndOffStation(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u1 := clockUnit(time.Unix(1000, 0), 10, 0, 0.05)
	c.Classify(u1, nil, TelemetryState{Found: true})
	prev := u1.Snapshot()

	// Nearly no distance covered: the platform is on station.
	u2 := clockUnit(u1.PingTime[9].Add(time.Second), 10, 0.05, 0.0001)
	c.Classify(u2, prev, TelemetryState{Found: true, Continuous: true})
	assert.Equal(t, -1, u2.Transect)
	assert.Equal(t, 0.0, u2.NM[0])
	prev = u2.Snapshot()

	// Still stationary: identity is kept.
	u3 := clockUnit(u2.PingTime[9].Add(time.Second), 10, 0, 0.0001)
	c.Classify(u3, prev, TelemetryState{Found: true, Continuous: true})
	assert.Equal(t, -1, u3.Transect)
	prev = u3.Snapshot()

	// Underway again: the next transect starts with a fresh counter.
	u4 := clockUnit(u3.PingTime[9].Add(time.Second), 10, 3, 0.05)
	c.Classify(u4, prev, TelemetryState{Found: true, Continuous: true})
	assert.Equal(t, 2, u4.Transect)
	assert.Equal(t, 0.0, u4.NM[0])
}

func TestClassifyFirstUnitStationary(t *testing.T) {
	c := NewClassifier(3, log.NewNoopLogger())

	u := clockUnit(time.Unix(1000, 0), 10, 0, 0.0001)
	c.Classify(u, nil, TelemetryState{Found: true})

	assert.Equal(t, 0, u.Transect)
}
