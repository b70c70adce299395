package ek60

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/seaward-labs/echoline/internal/domain"
)

// ChannelCalibration overrides the instrument's embedded parameters for one
// frequency channel. Nil fields keep the embedded value.
type ChannelCalibration struct {
	Gain                *float64 `toml:"gain"`                  // dB
	SaCorrection        *float64 `toml:"sa_correction"`         // dB
	EquivalentBeamAngle *float64 `toml:"equivalent_beam_angle"` // dB re 1 sr
	Absorption          *float64 `toml:"absorption"`            // dB/m
	SoundVelocity       *float64 `toml:"sound_velocity"`        // m/s
	TransmitPower       *float64 `toml:"transmit_power"`        // W
	PulseLength         *float64 `toml:"pulse_length"`          // s
}

// Calibration is a per-channel override table, keyed by frequency in kHz:
//
//	[channel.38]
//	gain          = 25.92
//	sa_correction = -0.52
type Calibration struct {
	Channel map[string]ChannelCalibration `toml:"channel"`
}

// LoadCalibration reads a TOML calibration file. Parse failures wrap
// domain.ErrCalibration.
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCalibration, err)
	}
	var cal Calibration
	if err := toml.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCalibration, path, err)
	}
	if len(cal.Channel) == 0 {
		return nil, fmt.Errorf("%w: %s defines no [channel.N] table", domain.ErrCalibration, path)
	}
	return &cal, nil
}

// ForChannel returns the overrides for the given frequency, or nil when the
// file does not mention it.
func (c *Calibration) ForChannel(khz int) *ChannelCalibration {
	if c == nil {
		return nil
	}
	cc, ok := c.Channel[strconv.Itoa(khz)]
	if !ok {
		return nil
	}
	return &cc
}
