package ek60

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
)

// powerScale converts raw EK60 power counts to dB.
var powerScale = 10 * math.Log10(2) / 256

// angleScale converts raw electrical angle counts to electrical degrees.
const angleScale = 180.0 / 128.0

// rawPing is one RAW0 sample datagram of the selected channel.
type rawPing struct {
	ts             time.Time
	transmitPower  float64
	pulseLength    float64
	sampleInterval float64
	soundVelocity  float64
	absorption     float64
	offset         int
	power          []int16
	along          []int8
	athwart        []int8
}

// Decoder reads EK60 .raw files and extracts one frequency channel.
type Decoder struct {
	channelKHz int
	cal        *Calibration
	logger     ports.Logger
}

// NewDecoder builds a decoder for the given frequency channel (kHz). cal may
// be nil, in which case the instrument's embedded parameters are used as is.
func NewDecoder(channelKHz int, cal *Calibration, logger ports.Logger) *Decoder {
	return &Decoder{channelKHz: channelKHz, cal: cal, logger: logger}
}

// Channels reports nothing ahead of decoding: the channel table lives inside
// each file's configuration datagram.
func (d *Decoder) Channels() []int {
	return nil
}

// Decode reads the file at path into a RawUnit.
func (d *Decoder) Decode(ctx context.Context, path string) (*domain.RawUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ek60: %w", err)
	}
	defer f.Close()

	var (
		r         = bufio.NewReaderSize(f, 1<<20)
		channel   = -1 // 1-based RAW0 channel index, -1 until CON0 seen
		xdcr      transducer
		pings     []rawPing
		posTime   []time.Time
		posLat    []float64
		posLon    []float64
		motTime   []time.Time
		motPitch  []float64
		motRoll   []float64
		motHeave  []float64
		datagrams int
	)

	for {
		if datagrams%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		datagrams++

		dg, err := readDatagram(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ek60: %s: %w", path, err)
		}

		switch dg.kind {
		case "CON0":
			table, err := parseConfig(dg.body)
			if err != nil {
				return nil, fmt.Errorf("ek60: %s: %w", path, err)
			}
			for i := range table {
				if table[i].frequencyKHz() == d.channelKHz {
					channel = i + 1
					xdcr = table[i]
					break
				}
			}
			if channel < 0 {
				return nil, fmt.Errorf("%w: %d kHz not in %s",
					domain.ErrChannelNotFound, d.channelKHz, path)
			}

		case "RAW0":
			if channel < 0 {
				return nil, fmt.Errorf("ek60: %s: sample datagram before configuration", path)
			}
			p, ch, err := parseRaw0(dg)
			if err != nil {
				return nil, fmt.Errorf("ek60: %s: %w", path, err)
			}
			if ch == channel {
				pings = append(pings, p)
			}

		case "NME0":
			pos, att := parseNMEA(cstr(dg.body))
			if pos != nil {
				posTime = append(posTime, dg.ts)
				posLat = append(posLat, pos.Lat)
				posLon = append(posLon, pos.Lon)
			}
			if att != nil {
				motTime = append(motTime, dg.ts)
				motPitch = append(motPitch, att.Pitch)
				motRoll = append(motRoll, att.Roll)
				motHeave = append(motHeave, att.Heave)
			}
		}
	}

	if channel < 0 {
		return nil, fmt.Errorf("ek60: %s: no configuration datagram", path)
	}
	if len(pings) == 0 {
		return nil, fmt.Errorf("%w: %d kHz produced no samples in %s",
			domain.ErrChannelNotFound, d.channelKHz, path)
	}

	u, err := d.assemble(pings, xdcr)
	if err != nil {
		return nil, fmt.Errorf("ek60: %s: %w", path, err)
	}
	u.Rawfiles = []string{filepath.Base(path)}
	u.PosTime, u.PosLat, u.PosLon = posTime, posLat, posLon
	u.MotTime, u.MotPitch, u.MotRoll, u.MotHeave = motTime, motPitch, motRoll, motHeave

	d.logger.Debug("decoded unit",
		ports.String("file", u.Rawfiles[0]),
		ports.Int("pings", len(pings)),
		ports.Int("position_fixes", len(posTime)),
		ports.Int("attitude_fixes", len(motTime)))
	return u, nil
}

// parseRaw0 decodes one RAW0 body into a rawPing plus its channel index.
func parseRaw0(dg *datagram) (rawPing, int, error) {
	b := dg.body
	if len(b) < 64 {
		return rawPing{}, 0, fmt.Errorf("sample datagram too short: %d bytes", len(b))
	}
	channel := int(i16(b, 0))
	mode := int(i16(b, 2))
	count := int(i32(b, 60))
	if count < 0 {
		return rawPing{}, 0, fmt.Errorf("negative sample count")
	}

	p := rawPing{
		ts:             dg.ts,
		transmitPower:  f32(b, 12),
		pulseLength:    f32(b, 16),
		sampleInterval: f32(b, 24),
		soundVelocity:  f32(b, 28),
		absorption:     f32(b, 32),
		offset:         int(i32(b, 56)),
	}

	off := 64
	if mode&1 != 0 {
		if len(b) < off+2*count {
			return rawPing{}, 0, fmt.Errorf("truncated power samples")
		}
		p.power = make([]int16, count)
		for i := 0; i < count; i++ {
			p.power[i] = i16(b, off+2*i)
		}
		off += 2 * count
	}
	if mode&2 != 0 {
		if len(b) < off+2*count {
			return rawPing{}, 0, fmt.Errorf("truncated angle samples")
		}
		p.athwart = make([]int8, count)
		p.along = make([]int8, count)
		for i := 0; i < count; i++ {
			p.athwart[i] = int8(b[off+2*i])
			p.along[i] = int8(b[off+2*i+1])
		}
	}
	return p, channel, nil
}

// assemble converts collected pings to a calibrated Sv grid on a common
// range axis.
func (d *Decoder) assemble(pings []rawPing, xdcr transducer) (*domain.RawUnit, error) {
	first := pings[0]
	if len(first.power) == 0 {
		return nil, fmt.Errorf("channel carries no power samples")
	}
	count := len(first.power)
	for i := range pings {
		if len(pings[i].power) != count {
			return nil, fmt.Errorf("sample count changed mid-file: ping %d has %d of %d",
				i, len(pings[i].power), count)
		}
	}

	// Calibration overrides, when the file mentions this channel.
	cc := d.cal.ForChannel(d.channelKHz)
	gain, saCorr := xdcr.gainFor(first.pulseLength)
	eba := xdcr.EquivalentBeamAngle
	soundVelocity := first.soundVelocity
	absorption := first.absorption
	transmitPower := first.transmitPower
	pulseLength := first.pulseLength
	if cc != nil {
		if cc.Gain != nil {
			gain = *cc.Gain
		}
		if cc.SaCorrection != nil {
			saCorr = *cc.SaCorrection
		}
		if cc.EquivalentBeamAngle != nil {
			eba = *cc.EquivalentBeamAngle
		}
		if cc.SoundVelocity != nil {
			soundVelocity = *cc.SoundVelocity
		}
		if cc.Absorption != nil {
			absorption = *cc.Absorption
		}
		if cc.TransmitPower != nil {
			transmitPower = *cc.TransmitPower
		}
		if cc.PulseLength != nil {
			pulseLength = *cc.PulseLength
		}
	}
	if soundVelocity <= 0 || first.sampleInterval <= 0 {
		return nil, fmt.Errorf("%w: non-positive sound velocity or sample interval",
			domain.ErrCalibration)
	}

	dr := soundVelocity * first.sampleInterval / 2
	rng := make([]float64, count)
	for i := range rng {
		rng[i] = float64(first.offset+i+1) * dr
	}

	// Sonar equation constant: transmitted energy, beam geometry and the
	// effective gain collapse into one per-channel offset.
	wavelength := soundVelocity / xdcr.FrequencyHz
	svConst := 10*math.Log10(transmitPower*wavelength*wavelength*soundVelocity*pulseLength/(32*math.Pi*math.Pi)) +
		eba + 2*gain + 2*saCorr

	unit := &domain.RawUnit{
		Alpha:    absorption,
		Range:    rng,
		PingTime: make([]time.Time, len(pings)),
		Sv:       make([][]float64, count),
	}
	for i := range unit.Sv {
		unit.Sv[i] = make([]float64, len(pings))
	}
	hasAngles := first.along != nil && xdcr.AngleSensAlong != 0 && xdcr.AngleSensAthwart != 0
	if hasAngles {
		unit.AlongAngle = make([][]float64, count)
		unit.AthwartAngle = make([][]float64, count)
		for i := 0; i < count; i++ {
			unit.AlongAngle[i] = make([]float64, len(pings))
			unit.AthwartAngle[i] = make([]float64, len(pings))
		}
	}

	for j, p := range pings {
		unit.PingTime[j] = p.ts
		for i := 0; i < count; i++ {
			// TVG range: two samples back from the nominal range, floored
			// to one sample to keep the logarithm finite.
			rc := rng[i] - 2*dr
			if rc < dr {
				rc = dr
			}
			power := float64(p.power[i]) * powerScale
			unit.Sv[i][j] = power + 20*math.Log10(rc) + 2*absorption*rc - svConst
		}
		if hasAngles && p.along != nil {
			for i := 0; i < count; i++ {
				unit.AlongAngle[i][j] = float64(p.along[i])*angleScale/xdcr.AngleSensAlong - xdcr.AngleOffsetAlong
				unit.AthwartAngle[i][j] = float64(p.athwart[i])*angleScale/xdcr.AngleSensAthwart - xdcr.AngleOffsetAthwart
			}
		}
	}
	return unit, nil
}
