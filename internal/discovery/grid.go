package discovery

import "math"

// DegreesPerKM is an approximate conversion factor from kilometers to
// latitude degrees. At mid-latitudes, 1 degree of latitude is about 111 km.
const DegreesPerKM = 1.0 / 111.0

// Cell is one nearby-search center.
type Cell struct {
	Lat float64
	Lon float64
}

// GridCells lays a square grid of search centers over a circle of radiusKM
// around the given point, stepKM apart, keeping only cells inside the
// circle. A zero step returns the center alone. Longitude spacing is
// corrected for latitude so cells stay roughly square on the ground.
func GridCells(lat, lon, radiusKM, stepKM float64) []Cell {
	if stepKM <= 0 || radiusKM <= 0 || stepKM >= 2*radiusKM {
		return []Cell{{Lat: lat, Lon: lon}}
	}

	latStep := stepKM * DegreesPerKM
	lonScale := math.Cos(lat * math.Pi / 180)
	if lonScale < 0.01 {
		lonScale = 0.01
	}
	lonStep := latStep / lonScale

	steps := int(radiusKM / stepKM)
	var cells []Cell
	for i := -steps; i <= steps; i++ {
		for j := -steps; j <= steps; j++ {
			dKM := math.Hypot(float64(i)*stepKM, float64(j)*stepKM)
			if dKM > radiusKM {
				continue
			}
			cells = append(cells, Cell{
				Lat: lat + float64(i)*latStep,
				Lon: lon + float64(j)*lonStep,
			})
		}
	}
	return cells
}
