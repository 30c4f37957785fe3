package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// London and Birmingham city centres.
	londonLat, londonLon := 51.5074, -0.1278
	bhamLat, bhamLon := 52.4862, -1.8904

	d := DistanceKm(londonLat, londonLon, bhamLat, bhamLon)
	assert.InDelta(t, 163.0, d, 2.0)

	t.Run("symmetric", func(t *testing.T) {
		forward := DistanceKm(londonLat, londonLon, bhamLat, bhamLon)
		backward := DistanceKm(bhamLat, bhamLon, londonLat, londonLon)
		assert.InDelta(t, forward, backward, 1e-9)
	})

	t.Run("identical points", func(t *testing.T) {
		assert.Zero(t, DistanceKm(londonLat, londonLon, londonLat, londonLon))
	})
}

func TestPostcodeArea(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SW1A 1AA", "SW"},
		{"sw1a1aa", "SW"},
		{"  b33 8th ", "B"},
		{"EC1A 1BB", "EC"},
		{"M1 1AE", "M"},
		{"", ""},
		{"123", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PostcodeArea(tc.in), "postcode %q", tc.in)
	}
}

func TestPostcodeDistrict(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SW1A 1AA", "SW1A"},
		{"m1 1ae", "M1"},
		{"B33 8TH", "B33"},
		{"EC1A1BB", "EC1A"},
		{"W1", "W1"},
		{"AB1", "AB1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PostcodeDistrict(tc.in), "postcode %q", tc.in)
	}
}

func TestEstimatedDriveMinutes(t *testing.T) {
	assert.Equal(t, 0, EstimatedDriveMinutes(0))
	assert.Equal(t, 10, EstimatedDriveMinutes(5))  // 5 km at 30 km/h
	assert.Equal(t, 20, EstimatedDriveMinutes(10)) // urban band boundary
	assert.Equal(t, 35, EstimatedDriveMinutes(20)) // 20 + 10/40h
	assert.Equal(t, 80, EstimatedDriveMinutes(50))
	assert.Equal(t, 140, EstimatedDriveMinutes(100))

	t.Run("monotone non-decreasing", func(t *testing.T) {
		prev := 0
		for km := 0.0; km <= 300; km += 0.5 {
			got := EstimatedDriveMinutes(km)
			assert.GreaterOrEqual(t, got, prev, "at %.1f km", km)
			prev = got
		}
	})
}
