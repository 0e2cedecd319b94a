package acme

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Optional conversion of simulation Cartesian positions to
 *		real-world UTM/MGRS coordinates, for reporting only.
 *
 * Description:	The simulator's platform positions (spec's 3-vectors)
 *		have no inherent geographic meaning. A scenario may anchor
 *		its origin to a real lat/lon so that a run can be plotted
 *		on a map or logged in human-readable coordinates. This
 *		never participates in adjacency, delivery, or disruption.
 *
 *---------------------------------------------------------------*/

const metresPerDegreeLat = 111320.0

// GeoAnchor maps the simulator's abstract Cartesian coordinate space onto
// a real-world origin.
type GeoAnchor struct {
	Origin        s2.LatLng
	MetresPerUnit float64
}

// Project converts a platform position into UTM and MGRS coordinates,
// treating v.X/v.Y as east/north offsets (in simulator units) from Origin
// and ignoring v.Z. This is a local-tangent-plane approximation, adequate
// for the short baselines a simulated RF scenario covers.
func (a GeoAnchor) Project(v r3.Vector) (coordconv.UTMCoord, string, error) {
	scale := a.MetresPerUnit
	if scale == 0 {
		scale = 1
	}

	latRad := float64(a.Origin.Lat)
	metresPerDegreeLon := metresPerDegreeLat * math.Cos(latRad)
	if metresPerDegreeLon == 0 {
		metresPerDegreeLon = metresPerDegreeLat
	}

	dLatDeg := (v.Y * scale) / metresPerDegreeLat
	dLonDeg := (v.X * scale) / metresPerDegreeLon

	latLng := s2.LatLng{
		Lat: a.Origin.Lat + s1.Angle(dLatDeg*math.Pi/180),
		Lng: a.Origin.Lng + s1.Angle(dLonDeg*math.Pi/180),
	}

	utmCoord, err := coordconv.DefaultUTMConverter.ConvertFromGeodetic(latLng, 0)
	if err != nil {
		return coordconv.UTMCoord{}, "", fmt.Errorf("projecting to UTM: %w", err)
	}

	mgrsCoord, err := coordconv.DefaultMGRSConverter.ConvertFromGeodetic(latLng, 5)
	if err != nil {
		return utmCoord, "", fmt.Errorf("projecting to MGRS: %w", err)
	}

	return utmCoord, fmt.Sprintf("%s", mgrsCoord), nil
}
