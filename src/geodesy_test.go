package acme

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoAnchorProjectAtOrigin(t *testing.T) {
	anchor := GeoAnchor{
		Origin:        s2.LatLng{Lat: s1.Angle(42.3601 * 3.14159265358979 / 180), Lng: s1.Angle(-71.0589 * 3.14159265358979 / 180)},
		MetresPerUnit: 1,
	}

	utm, mgrs, err := anchor.Project(r3.Vector{})
	require.NoError(t, err)
	assert.NotZero(t, utm.Zone)
	assert.NotEmpty(t, mgrs)
}

func TestGeoAnchorProjectOffsetMovesCoordinates(t *testing.T) {
	anchor := GeoAnchor{
		Origin:        s2.LatLng{Lat: s1.Angle(0), Lng: s1.Angle(0)},
		MetresPerUnit: 1000,
	}

	utmOrigin, _, err := anchor.Project(r3.Vector{})
	require.NoError(t, err)

	utmOffset, _, err := anchor.Project(r3.Vector{X: 10, Y: 0, Z: 0})
	require.NoError(t, err)

	assert.NotEqual(t, utmOrigin.Easting, utmOffset.Easting, "an eastward offset should change UTM easting")
}

func TestGeoAnchorDefaultsScaleToOne(t *testing.T) {
	anchor := GeoAnchor{Origin: s2.LatLng{Lat: s1.Angle(0), Lng: s1.Angle(0)}}

	_, _, err := anchor.Project(r3.Vector{X: 1, Y: 1, Z: 0})
	require.NoError(t, err)
}
