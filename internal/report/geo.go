// Package report renders a project's metric records and benchmark summary
// into the deliverables: an interactive map, a metrics workbook, a CSV
// export, and a shapefile of peer locations.
package report

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/peerview-cli/internal/model"
)

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two points.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

// Extent describes where a project's peers sit on the map.
type Extent struct {
	CenterLat float64
	CenterLon float64
	// RadiusKM is the distance from the centroid to the farthest peer.
	RadiusKM float64
	Bounds   *geom.Bounds
	Located  int // records with coordinates
}

// ComputeExtent finds the centroid, radius, and bounding box of the records
// that carry coordinates. Returns nil when none do.
func ComputeExtent(records []model.MetricRecord) *Extent {
	bounds := geom.NewBounds(geom.XY)
	var sumLat, sumLon float64
	var n int
	for _, r := range records {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{*r.Longitude, *r.Latitude}))
		sumLat += *r.Latitude
		sumLon += *r.Longitude
		n++
	}
	if n == 0 {
		return nil
	}

	ext := &Extent{
		CenterLat: sumLat / float64(n),
		CenterLon: sumLon / float64(n),
		Bounds:    bounds,
		Located:   n,
	}
	for _, r := range records {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		if d := HaversineKM(ext.CenterLat, ext.CenterLon, *r.Latitude, *r.Longitude); d > ext.RadiusKM {
			ext.RadiusKM = d
		}
	}
	return ext
}
