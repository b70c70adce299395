package domain

import "time"

// Pile is the accumulation buffer: zero or more joined continuous units
// concatenated along the ping axis, sharing one transect identity and one
// range grid. It is owned exclusively by the stream driver for the lifetime
// of one transect segment and is reset on discontinuity, on transect-sign
// change, or after a window is handed off.
type Pile struct {
	Rawfiles []string
	Transect int

	Sv           [][]float64
	AlongAngle   [][]float64
	AthwartAngle [][]float64
	Alpha        float64
	Range        []float64

	PingTime []time.Time
	Lon      []float64
	Lat      []float64
	NM       []float64
	KM       []float64
	KPH      []float64
	Knots    []float64

	PitchMax []float64
	RollMax  []float64
	HeaveMax []float64
}

// NewPile starts a fresh pile containing only the given unit. The pile takes
// ownership of the unit's arrays; callers must not reuse the unit afterwards.
func NewPile(u *RawUnit) *Pile {
	return &Pile{
		Rawfiles:     u.Rawfiles,
		Transect:     u.Transect,
		Sv:           u.Sv,
		AlongAngle:   u.AlongAngle,
		AthwartAngle: u.AthwartAngle,
		Alpha:        u.Alpha,
		Range:        u.Range,
		PingTime:     u.PingTime,
		Lon:          u.Lon,
		Lat:          u.Lat,
		NM:           u.NM,
		KM:           u.KM,
		KPH:          u.KPH,
		Knots:        u.Knots,
		PitchMax:     u.PitchMax,
		RollMax:      u.RollMax,
		HeaveMax:     u.HeaveMax,
	}
}

// Join folds a unit into the pile along the ping axis.
//
// A nil pile, or a unit that is not a continuation of the preceding one,
// starts a fresh pile: any half-accumulated buffer is discarded at this
// point. A continuous unit is appended; the continuity check guarantees the
// range grids are equal, so the range axis is unchanged.
func Join(pile *Pile, u *RawUnit) *Pile {
	if pile == nil || !u.Continuous {
		return NewPile(u)
	}

	pile.Rawfiles = append(pile.Rawfiles, u.Rawfiles...)
	pile.Transect = u.Transect
	pile.Alpha = u.Alpha

	for i := range pile.Sv {
		pile.Sv[i] = append(pile.Sv[i], u.Sv[i]...)
	}
	pile.AlongAngle = appendGrid(pile.AlongAngle, u.AlongAngle)
	pile.AthwartAngle = appendGrid(pile.AthwartAngle, u.AthwartAngle)

	pile.PingTime = append(pile.PingTime, u.PingTime...)
	pile.Lon = append(pile.Lon, u.Lon...)
	pile.Lat = append(pile.Lat, u.Lat...)
	pile.NM = append(pile.NM, u.NM...)
	pile.KM = append(pile.KM, u.KM...)
	pile.KPH = append(pile.KPH, u.KPH...)
	pile.Knots = append(pile.Knots, u.Knots...)
	pile.PitchMax = append(pile.PitchMax, u.PitchMax...)
	pile.RollMax = append(pile.RollMax, u.RollMax...)
	pile.HeaveMax = append(pile.HeaveMax, u.HeaveMax...)

	return pile
}

func appendGrid(dst, src [][]float64) [][]float64 {
	if dst == nil || src == nil {
		return dst
	}
	for i := range dst {
		dst[i] = append(dst[i], src[i]...)
	}
	return dst
}

// Pings returns the number of sample columns accumulated in the pile.
func (p *Pile) Pings() int {
	return len(p.PingTime)
}

// SpanNM returns the distance covered by the pile in nautical miles.
func (p *Pile) SpanNM() float64 {
	if len(p.NM) == 0 {
		return 0
	}
	return p.NM[len(p.NM)-1] - p.NM[0]
}

// Tail returns a copy of the pile restricted to its last n pings. When n is
// zero the result is nil; when n exceeds the pile length the whole pile is
// copied. Used to retain the boundary-carry pings after a window hand-off
// without holding the full sample grid.
func (p *Pile) Tail(n int) *Pile {
	if n <= 0 {
		return nil
	}
	total := p.Pings()
	if n > total {
		n = total
	}
	from := total - n

	t := &Pile{
		Rawfiles: append([]string(nil), p.Rawfiles...),
		Transect: p.Transect,
		Alpha:    p.Alpha,
		Range:    append([]float64(nil), p.Range...),
		Sv:       make([][]float64, len(p.Sv)),
		PingTime: append([]time.Time(nil), p.PingTime[from:]...),
		Lon:      append([]float64(nil), p.Lon[from:]...),
		Lat:      append([]float64(nil), p.Lat[from:]...),
		NM:       append([]float64(nil), p.NM[from:]...),
		KM:       append([]float64(nil), p.KM[from:]...),
		KPH:      append([]float64(nil), p.KPH[from:]...),
		Knots:    append([]float64(nil), p.Knots[from:]...),
		PitchMax: append([]float64(nil), p.PitchMax[from:]...),
		RollMax:  append([]float64(nil), p.RollMax[from:]...),
		HeaveMax: append([]float64(nil), p.HeaveMax[from:]...),
	}
	for i := range p.Sv {
		t.Sv[i] = append([]float64(nil), p.Sv[i][from:]...)
	}
	if p.AlongAngle != nil {
		t.AlongAngle = make([][]float64, len(p.AlongAngle))
		for i := range p.AlongAngle {
			t.AlongAngle[i] = append([]float64(nil), p.AlongAngle[i][from:]...)
		}
	}
	if p.AthwartAngle != nil {
		t.AthwartAngle = make([][]float64, len(p.AthwartAngle))
		for i := range p.AthwartAngle {
			t.AthwartAngle[i] = append([]float64(nil), p.AthwartAngle[i][from:]...)
		}
	}
	return t
}

// Concat returns a new pile with lead's pings placed before p's. The lead is
// the boundary-carry tail from the previous window; grids are guaranteed
// equal because carry is only applied within one transect.
func Concat(lead, p *Pile) *Pile {
	if lead == nil || lead.Pings() == 0 {
		return p
	}

	out := &Pile{
		Rawfiles: append(append([]string(nil), lead.Rawfiles...), p.Rawfiles...),
		Transect: p.Transect,
		Alpha:    p.Alpha,
		Range:    p.Range,
		Sv:       make([][]float64, len(p.Sv)),
		PingTime: append(append([]time.Time(nil), lead.PingTime...), p.PingTime...),
		Lon:      concatFloats(lead.Lon, p.Lon),
		Lat:      concatFloats(lead.Lat, p.Lat),
		NM:       concatFloats(lead.NM, p.NM),
		KM:       concatFloats(lead.KM, p.KM),
		KPH:      concatFloats(lead.KPH, p.KPH),
		Knots:    concatFloats(lead.Knots, p.Knots),
		PitchMax: concatFloats(lead.PitchMax, p.PitchMax),
		RollMax:  concatFloats(lead.RollMax, p.RollMax),
		HeaveMax: concatFloats(lead.HeaveMax, p.HeaveMax),
	}
	for i := range p.Sv {
		out.Sv[i] = concatFloats(lead.Sv[i], p.Sv[i])
	}
	return out
}

func concatFloats(a, b []float64) []float64 {
	return append(append([]float64(nil), a...), b...)
}
