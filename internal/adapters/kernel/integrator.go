// Package kernel implements the acoustic processing chain: swarm candidate
// extraction, seabed picking, and integration of volume backscatter into
// whole-mile distance bins.
package kernel

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/seaward-labs/echoline/internal/domain"
	"github.com/seaward-labs/echoline/internal/ports"
	"github.com/seaward-labs/echoline/internal/telemetry"
)

// nascFactor converts mean linear backscatter times layer thickness to the
// nautical area scattering coefficient (m² nmi⁻²).
var nascFactor = 4 * math.Pi * 1852 * 1852

// blankDB replaces samples excluded from a feature: effectively zero in the
// linear domain but still a number, so bin means stay defined.
const blankDB = -999.0

// Config tunes the integration chain.
type Config struct {
	// LayerTopM and LayerBottomM bound the integrated water-column layer in
	// metres. Samples outside it never contribute.
	LayerTopM    float64
	LayerBottomM float64

	// SwarmThresholdDB is the minimum Sv for a sample to count as part of an
	// aggregation; weaker samples are blanked before integration.
	SwarmThresholdDB float64

	// SeabedThresholdDB and SeabedMinM control the first-crossing seabed
	// pick: the shallowest sample below SeabedMinM exceeding the threshold.
	SeabedThresholdDB float64
	SeabedMinM        float64

	// BinNM is the distance bin width in nautical miles.
	BinNM float64
}

// DefaultConfig returns the integration defaults.
func DefaultConfig() Config {
	return Config{
		LayerTopM:         20,
		LayerBottomM:      250,
		SwarmThresholdDB:  -70,
		SeabedThresholdDB: -38,
		SeabedMinM:        20,
		BinNM:             1,
	}
}

// Integrator implements ports.Kernel.
type Integrator struct {
	cfg    Config
	logger ports.Logger
}

// New builds an integrator.
func New(cfg Config, logger ports.Logger) (*Integrator, error) {
	if cfg.LayerBottomM <= cfg.LayerTopM {
		return nil, fmt.Errorf("kernel: layer bottom %.1f m not below top %.1f m",
			cfg.LayerBottomM, cfg.LayerTopM)
	}
	if cfg.BinNM <= 0 {
		return nil, fmt.Errorf("kernel: bin width must be positive")
	}
	return &Integrator{cfg: cfg, logger: logger}, nil
}

// Process integrates the pile into whole-mile bins starting at fromMile.
//
// Bins whose full extent is covered by the pile's distance span are
// finalised and reported; the youngest, partially covered bin is left open
// and its start returned as ResumeMile. Valid marks the pings that fell in a
// finalised bin; pings before fromMile (carry context) and pings in the open
// bin are invalid and will be re-supplied to the next window.
func (k *Integrator) Process(ctx context.Context, pile *domain.Pile, fromMile float64) (*domain.ProcessedWindow, error) {
	if pile.Pings() == 0 {
		return nil, fmt.Errorf("kernel: empty pile")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nm := pile.NM
	lastNM := nm[len(nm)-1]
	if math.IsNaN(lastNM) {
		return nil, fmt.Errorf("kernel: pile has no distance telemetry")
	}

	var marks []float64
	for m := fromMile; m < lastNM; m += k.cfg.BinNM {
		marks = append(marks, m)
	}

	win := &domain.ProcessedWindow{
		Rawfiles:   pile.Rawfiles,
		Transect:   pile.Transect,
		Range:      pile.Range,
		PingTime:   pile.PingTime,
		Lon:        pile.Lon,
		Lat:        pile.Lat,
		NM:         pile.NM,
		KM:         pile.KM,
		Knots:      pile.Knots,
		Sv:         pile.Sv,
		Valid:      make([]bool, pile.Pings()),
		ResumeMile: fromMile,
	}
	if len(marks) == 0 {
		return win, nil
	}

	seabed := k.pickSeabed(pile)
	win.SvSwarm = k.maskSwarm(pile, seabed)

	final := marks[:len(marks)-1]
	win.ResumeMile = marks[len(marks)-1]
	for i, d := range nm {
		win.Valid[i] = !math.IsNaN(d) && d >= fromMile && d < win.ResumeMile
	}
	if len(final) == 0 {
		return win, nil
	}

	win.MileMarks = final
	win.BinSeabed = make([]float64, len(final))
	win.BinNASC = make([]float64, len(final))
	win.BinPCT = make([]float64, len(final))
	for b, m := range final {
		win.BinSeabed[b], win.BinNASC[b], win.BinPCT[b] = k.integrateBin(win, seabed, m)
	}

	// Bin positions: distance resolves to time on the pile's own clock, and
	// time to the interpolated fix.
	tf := telemetry.EpochSeconds(pile.PingTime)
	binTF := telemetry.Resample(nm, tf, final, false)
	win.BinTime = make([]time.Time, len(final))
	for i, s := range binTF {
		if math.IsNaN(s) {
			continue
		}
		win.BinTime[i] = time.Unix(0, int64(s*float64(time.Second))).UTC()
	}
	win.BinLon = telemetry.Resample(tf, pile.Lon, binTF, false)
	win.BinLat = telemetry.Resample(tf, pile.Lat, binTF, false)

	k.logger.Debug("window integrated",
		ports.Int("transect", win.Transect),
		ports.Int("bins", len(final)),
		ports.Float64("resume_nm", win.ResumeMile))
	return win, nil
}

// pickSeabed returns the per-ping seabed range: the shallowest sample below
// SeabedMinM whose Sv exceeds the seabed threshold. NaN when no crossing or
// when the pick lies below the integrated layer.
func (k *Integrator) pickSeabed(pile *domain.Pile) []float64 {
	out := make([]float64, pile.Pings())
	for j := range out {
		out[j] = math.NaN()
		for i, r := range pile.Range {
			if r < k.cfg.SeabedMinM {
				continue
			}
			if pile.Sv[i][j] > k.cfg.SeabedThresholdDB {
				if r <= k.cfg.LayerBottomM {
					out[j] = r
				}
				break
			}
		}
	}
	return out
}

// maskSwarm builds the feature grid: samples inside the layer and above the
// seabed keep their Sv when they reach the swarm threshold, everything else
// is blanked. Samples outside the usable water column are NaN and never
// count towards bin statistics.
func (k *Integrator) maskSwarm(pile *domain.Pile, seabed []float64) [][]float64 {
	sw := make([][]float64, len(pile.Sv))
	for i, r := range pile.Range {
		sw[i] = make([]float64, pile.Pings())
		for j := range sw[i] {
			switch {
			case r < k.cfg.LayerTopM || r > k.cfg.LayerBottomM:
				sw[i][j] = math.NaN()
			case !math.IsNaN(seabed[j]) && r >= seabed[j]:
				sw[i][j] = math.NaN()
			case pile.Sv[i][j] >= k.cfg.SwarmThresholdDB:
				sw[i][j] = pile.Sv[i][j]
			default:
				sw[i][j] = blankDB
			}
		}
	}
	return sw
}

// integrateBin summarises one finalised bin [m, m+BinNM).
func (k *Integrator) integrateBin(win *domain.ProcessedWindow, seabed []float64, m float64) (binSeabed, nasc, pct float64) {
	var (
		sbSum, sbN   float64
		linSum, linN float64
		usable, all  float64
	)
	for j, d := range win.NM {
		if math.IsNaN(d) || d < m || d >= m+k.cfg.BinNM {
			continue
		}
		if !math.IsNaN(seabed[j]) {
			sbSum += seabed[j]
			sbN++
		}
		for i := range win.SvSwarm {
			r := win.Range[i]
			if r < k.cfg.LayerTopM || r > k.cfg.LayerBottomM {
				continue
			}
			all++
			v := win.SvSwarm[i][j]
			if math.IsNaN(v) {
				continue
			}
			usable++
			linSum += math.Pow(10, v/10)
			linN++
		}
	}

	binSeabed = math.NaN()
	if sbN > 0 {
		binSeabed = sbSum / sbN
	}

	thickness := k.cfg.LayerBottomM - k.cfg.LayerTopM
	if !math.IsNaN(binSeabed) && binSeabed < k.cfg.LayerBottomM {
		thickness = binSeabed - k.cfg.LayerTopM
	}

	nasc = math.NaN()
	if linN > 0 {
		nasc = nascFactor * (linSum / linN) * thickness
	}

	pct = 0
	if all > 0 {
		pct = usable / all * 100
	}
	return binSeabed, nasc, pct
}
