package report

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/peerview-cli/internal/model"
)

// shapefileFields is the DBF schema for peer points. DBF field names are
// capped at 10 characters.
var shapefileFields = []shp.Field{
	shp.StringField("NAME", 64),
	shp.StringField("STREET", 96),
	shp.FloatField("REVENUE", 18, 2),
	shp.FloatField("TICKET", 12, 2),
	shp.FloatField("YOY", 10, 4),
	shp.StringField("TRUSTED", 3),
}

// WriteShapefile writes peer locations as a point shapefile for GIS tools.
// Records without coordinates are skipped; the count written is returned.
func WriteShapefile(path string, records []model.MetricRecord) (int, error) {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "report: create shapefile %s", path)
	}
	defer w.Close()
	w.SetFields(shapefileFields)

	written := 0
	for _, r := range records {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		row := int(w.Write(&shp.Point{X: *r.Longitude, Y: *r.Latitude}))

		attrs := []interface{}{
			truncateAttr(r.Name, 64),
			truncateAttr(r.Street, 96),
			derefZero(r.AnnualRevenue),
			derefZero(r.TicketSize),
			derefZero(r.YoYGrowth),
			yesNo(r.Trusted()),
		}
		for col, v := range attrs {
			if err := w.WriteAttribute(row, col, v); err != nil {
				return written, eris.Wrapf(err, "report: write shapefile attribute %d", col)
			}
		}
		written++
	}
	return written, nil
}

// PointEWKB encodes a peer location as little-endian EWKB with SRID 4326,
// the form PostGIS ingests directly.
func PointEWKB(lat, lon float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lon, lat})
	p.SetSRID(4326)
	out, err := ewkb.Marshal(p, ewkb.NDR)
	return out, eris.Wrap(err, "report: encode point ewkb")
}

func truncateAttr(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func derefZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
