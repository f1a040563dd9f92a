package distance

import (
	"math"

	"github.com/cdstlab/optimizer/internal/problem"
)

const earthRadiusKM = 6371.0088

// Coordinate is a WGS84 decimal-degree point. It is an alias of
// problem.Coordinate so that Provider satisfies problem.DistanceLookup
// without an adapter layer.
type Coordinate = problem.Coordinate

// haversineKM returns the great-circle distance between two coordinates in
// kilometers.
func haversineKM(o, d Coordinate) float64 {
	lat1, lat2 := o.Lat*math.Pi/180, d.Lat*math.Pi/180
	dLat := (d.Lat - o.Lat) * math.Pi / 180
	dLng := (d.Lng - o.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// minutesAt synthesizes travel time from a distance at an assumed average
// speed (default 40 km/h).
func minutesAt(km, speedKMH float64) float64 {
	if speedKMH <= 0 {
		speedKMH = defaultFallbackSpeedKMH
	}
	return km / speedKMH * 60
}
