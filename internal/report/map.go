package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/peerview-cli/internal/model"
)

// mapTemplate is a self-contained Leaflet page. Tiles come from OSM at view
// time; everything else is inlined so the file works from disk.
var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body, #map { height: 100%; margin: 0; }
  .legend { background: white; padding: 8px 12px; border-radius: 4px; line-height: 1.6; }
  .dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 6px; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var peers = {{.Peers}};
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 11);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
peers.forEach(function (p) {
  L.circleMarker([p.lat, p.lon], {
    radius: 7,
    color: p.trusted ? '#2e7d32' : '#9e9e9e',
    fillOpacity: 0.7
  }).addTo(map).bindPopup(p.popup);
});
var legend = L.control({position: 'bottomright'});
legend.onAdd = function () {
  var div = L.DomUtil.create('div', 'legend');
  div.innerHTML = '<span class="dot" style="background:#2e7d32"></span>In benchmark<br>' +
    '<span class="dot" style="background:#9e9e9e"></span>Excluded';
  return div;
};
legend.addTo(map);
if (peers.length > 1) {
  map.fitBounds(peers.map(function (p) { return [p.lat, p.lon]; }), {padding: [30, 30]});
}
</script>
</body>
</html>
`))

type mapPeer struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Trusted bool    `json:"trusted"`
	Popup   string  `json:"popup"`
}

type mapData struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Peers     template.JS
}

// WriteMap renders the peer map for a project. Records without coordinates
// are left off the map; an error is returned only when nothing can be drawn.
func WriteMap(w io.Writer, project *model.Project, records []model.MetricRecord) error {
	ext := ComputeExtent(records)
	if ext == nil {
		return eris.New("report: no records carry coordinates, nothing to map")
	}

	peers := make([]mapPeer, 0, ext.Located)
	for _, r := range records {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		peers = append(peers, mapPeer{
			Lat:     *r.Latitude,
			Lon:     *r.Longitude,
			Trusted: r.Trusted(),
			Popup:   popupHTML(r),
		})
	}
	encoded, err := json.Marshal(peers)
	if err != nil {
		return eris.Wrap(err, "report: encode map markers")
	}

	data := mapData{
		Title:     fmt.Sprintf("%s peers: %s", project.Industry, project.Location),
		CenterLat: ext.CenterLat,
		CenterLon: ext.CenterLon,
		Peers:     template.JS(encoded),
	}
	return eris.Wrap(mapTemplate.Execute(w, data), "report: render map")
}

func popupHTML(r model.MetricRecord) string {
	out := "<b>" + template.HTMLEscapeString(r.Name) + "</b>"
	if r.Street != "" {
		out += "<br>" + template.HTMLEscapeString(r.Street)
	}
	if r.AnnualRevenue != nil {
		out += fmt.Sprintf("<br>Revenue: $%.0f", *r.AnnualRevenue)
	}
	if r.TicketSize != nil {
		out += fmt.Sprintf("<br>Avg ticket: $%.2f", *r.TicketSize)
	}
	return out
}
