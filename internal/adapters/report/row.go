package report

import (
	"encoding/json"
	"math"
	"time"

	"github.com/seaward-labs/echoline/internal/domain"
)

// Row is one finalised distance bin flattened for delivery.
type Row struct {
	Time      time.Time `json:"time"`
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
	Transect  int       `json:"transect"`
	Miles     float64   `json:"miles"`
	Seabed    float64   `json:"seabed"`
	NASC      float64   `json:"nasc"`
	PCT       float64   `json:"pct_samples"`
}

// MarshalJSON encodes NaN fields (no seabed, undefined NASC, no fix) as null.
func (r Row) MarshalJSON() ([]byte, error) {
	type wire struct {
		Time      time.Time `json:"time"`
		Longitude *float64  `json:"longitude"`
		Latitude  *float64  `json:"latitude"`
		Transect  int       `json:"transect"`
		Miles     float64   `json:"miles"`
		Seabed    *float64  `json:"seabed"`
		NASC      *float64  `json:"nasc"`
		PCT       float64   `json:"pct_samples"`
	}
	opt := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(wire{
		Time:      r.Time,
		Longitude: opt(r.Longitude),
		Latitude:  opt(r.Latitude),
		Transect:  r.Transect,
		Miles:     r.Miles,
		Seabed:    opt(r.Seabed),
		NASC:      opt(r.NASC),
		PCT:       r.PCT,
	})
}

// Rows flattens a window's finalised bins.
func Rows(win *domain.ProcessedWindow) []Row {
	out := make([]Row, win.Bins())
	for i := range out {
		out[i] = Row{
			Time:      win.BinTime[i],
			Longitude: win.BinLon[i],
			Latitude:  win.BinLat[i],
			Transect:  win.Transect,
			Miles:     win.MileMarks[i],
			Seabed:    win.BinSeabed[i],
			NASC:      win.BinNASC[i],
			PCT:       win.BinPCT[i],
		}
	}
	return out
}
