package domain

import "time"

// ProcessedWindow is the output of the acoustic kernel for one pile,
// including any boundary-carry pings prepended to it.
//
// Full-resolution arrays cover every ping handed to the kernel. Binned
// arrays cover the whole-mile distance bins finalised by this window; bin i
// spans [MileMarks[i], MileMarks[i]+1). The youngest, still partially
// covered bin is never emitted: its start is ResumeMile and the next window
// re-bins it from scratch, so every bin is reported exactly once. Valid
// marks the pings that fell inside a finalised bin; the invalid edge runs
// are what the next window's carry re-supplies.
type ProcessedWindow struct {
	Rawfiles []string
	Transect int

	// Full resolution, after the carry join.
	Range    []float64
	PingTime []time.Time
	Lon      []float64
	Lat      []float64
	NM       []float64
	KM       []float64
	Knots    []float64
	Sv       [][]float64 // as handed to the kernel
	SvSwarm  [][]float64 // cleaned samples, feature regions only
	Valid    []bool      // per ping

	// Distance-binned summaries, finalised bins only.
	MileMarks []float64 // bin start distances, nautical miles
	BinTime   []time.Time
	BinLon    []float64
	BinLat    []float64
	BinSeabed []float64 // seabed depth per bin, metres; NaN when none
	BinNASC   []float64 // nautical area scattering coefficient per bin
	BinPCT    []float64 // percentage of valid samples behind each bin

	// ResumeMile is the start of the partially covered bin left open by this
	// window; the next window's binning resumes there.
	ResumeMile float64
}

// Bins returns the number of finalised distance bins.
func (w *ProcessedWindow) Bins() int {
	return len(w.MileMarks)
}
