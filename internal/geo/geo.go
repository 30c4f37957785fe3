// Package geo holds the pure geospatial helpers used by pricing and
// allocation: great-circle distance, UK postcode prefix extraction and
// a coarse drive-time estimate.
package geo

import (
	"math"
	"strings"
	"unicode"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle (Haversine) distance between two
// points in kilometres.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// PostcodeArea returns the leading letters of a postcode, e.g.
// "SW1A 1AA" -> "SW". Case- and spacing-insensitive.
func PostcodeArea(postcode string) string {
	cleaned := clean(postcode)
	for i, r := range cleaned {
		if !unicode.IsLetter(r) {
			return cleaned[:i]
		}
	}
	return cleaned
}

// PostcodeDistrict returns the outward code, e.g. "SW1A 1AA" -> "SW1A".
// Strings of three characters or fewer are returned unchanged.
func PostcodeDistrict(postcode string) string {
	cleaned := clean(postcode)
	if len(cleaned) <= 3 {
		return cleaned
	}
	return cleaned[:len(cleaned)-3]
}

func clean(postcode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
}

// Speed bands for the drive-time estimate. Travel is accumulated
// segment by segment so the estimate never decreases with distance.
const (
	urbanBandKm      = 10.0
	mixedBandKm      = 50.0
	urbanSpeedKmh    = 30.0
	mixedSpeedKmh    = 40.0
	motorwaySpeedKmh = 50.0
)

// EstimatedDriveMinutes estimates driving time for a trip of the given
// length: the first 10 km at urban speed, the next 40 km at a mixed
// speed and anything beyond at motorway speed, rounded to the nearest
// minute.
func EstimatedDriveMinutes(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}

	var hours float64
	switch {
	case distanceKm <= urbanBandKm:
		hours = distanceKm / urbanSpeedKmh
	case distanceKm <= mixedBandKm:
		hours = urbanBandKm/urbanSpeedKmh + (distanceKm-urbanBandKm)/mixedSpeedKmh
	default:
		hours = urbanBandKm/urbanSpeedKmh +
			(mixedBandKm-urbanBandKm)/mixedSpeedKmh +
			(distanceKm-mixedBandKm)/motorwaySpeedKmh
	}
	return int(math.Round(hours * 60))
}
