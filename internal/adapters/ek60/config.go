package ek60

import (
	"fmt"
	"math"
)

// Sizes of the CON0 configuration datagram sections.
const (
	configHeaderLen     = 516 // survey + transect + sounder names, version, spare, count
	configTransducerLen = 320
)

// transducer is one channel's installation record from the CON0 datagram.
type transducer struct {
	ChannelID           string
	BeamType            int32
	FrequencyHz         float64
	Gain                float64
	EquivalentBeamAngle float64
	AngleSensAlong      float64
	AngleSensAthwart    float64
	AngleOffsetAlong    float64
	AngleOffsetAthwart  float64

	// Per-pulse-length calibration tables, parallel slices.
	PulseLengths  []float64
	Gains         []float64
	SaCorrections []float64
}

// parseConfig decodes the CON0 body into the transducer table.
func parseConfig(body []byte) ([]transducer, error) {
	if len(body) < configHeaderLen {
		return nil, fmt.Errorf("configuration datagram too short: %d bytes", len(body))
	}
	count := int(i32(body, configHeaderLen-4))
	if count <= 0 || count > 64 {
		return nil, fmt.Errorf("implausible transducer count %d", count)
	}
	if len(body) < configHeaderLen+count*configTransducerLen {
		return nil, fmt.Errorf("configuration datagram truncated: %d transducers in %d bytes",
			count, len(body))
	}

	out := make([]transducer, count)
	for i := 0; i < count; i++ {
		rec := body[configHeaderLen+i*configTransducerLen:]
		t := transducer{
			ChannelID:           cstr(rec[:128]),
			BeamType:            i32(rec, 128),
			FrequencyHz:         f32(rec, 132),
			Gain:                f32(rec, 136),
			EquivalentBeamAngle: f32(rec, 140),
			AngleSensAlong:      f32(rec, 152),
			AngleSensAthwart:    f32(rec, 156),
			AngleOffsetAlong:    f32(rec, 160),
			AngleOffsetAthwart:  f32(rec, 164),
		}
		for j := 0; j < 5; j++ {
			t.PulseLengths = append(t.PulseLengths, f32(rec, 192+4*j))
			t.Gains = append(t.Gains, f32(rec, 220+4*j))
			t.SaCorrections = append(t.SaCorrections, f32(rec, 248+4*j))
		}
		out[i] = t
	}
	return out, nil
}

// gainFor returns the calibrated gain and Sa correction for the given pulse
// length, falling back to the installation gain when the pulse length is not
// tabulated.
func (t *transducer) gainFor(pulseLength float64) (gain, saCorr float64) {
	gain = t.Gain
	for i, pl := range t.PulseLengths {
		if pl > 0 && math.Abs(pl-pulseLength) < 1e-7 {
			return t.Gains[i], t.SaCorrections[i]
		}
	}
	return gain, 0
}

// frequencyKHz returns the transducer's nominal frequency in kHz.
func (t *transducer) frequencyKHz() int {
	return int(math.Round(t.FrequencyHz / 1000))
}
