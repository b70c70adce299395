package telemetry

import "math"

const (
	earthRadiusKM = 6371.0088
	kmPerNM       = 1.852
)

// haversineKM returns the great-circle distance in kilometres between two
// WGS84 fixes. NaN when any coordinate is NaN.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	if math.IsNaN(lat1) || math.IsNaN(lon1) || math.IsNaN(lat2) || math.IsNaN(lon2) {
		return math.NaN()
	}
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLam := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLam/2)*math.Sin(dLam/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// kmToNM converts kilometres to nautical miles.
func kmToNM(km float64) float64 {
	return km / kmPerNM
}
