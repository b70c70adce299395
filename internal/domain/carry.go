package domain

// CarryState is the boundary-carry bookkeeping between processed windows.
//
// TrailPings counts how many trailing pings of the last window's source pile
// must be prepended to the next one before processing: most windowed
// resampling algorithms cannot produce valid output near the input's edges,
// so carrying real preceding samples across the boundary keeps edge pings
// valid for the next window instead of reprocessing them from zero.
//
// LastMile is the last distance boundary (nautical miles) already reported
// by the previous window; the next window's distance binning resumes there
// rather than restarting.
//
// Transect is the identity of the window the carry was derived from. The
// carry applies only to a pile of the same transect, so a new bout never
// inherits stale boundary state even when TrailPings is zero.
//
// The zero value means "no carry": recomputed after every successful window
// hand-off and reset whenever continuity breaks or a transect is skipped.
type CarryState struct {
	TrailPings int
	LastMile   float64
	Transect   int
}

// Reset zeroes the carry state.
func (c *CarryState) Reset() {
	c.TrailPings = 0
	c.LastMile = 0
	c.Transect = 0
}
