// Package maprender assembles resolved stations into a renderable map
// document and emits it as a self-contained Leaflet page.
package maprender

import (
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb/geojson"

	"booking_map/internal/resolver"
	"booking_map/internal/vatbook"
)

// Render defaults, carried over from the upstream presentation.
const (
	DefaultCenterLat = 51.250982119671754
	DefaultCenterLon = 10.489567530592556
	DefaultZoom      = 6

	circleRadius = 25
	circleColor  = "#3186cc"
	polygonFill  = "#f5532f80"
	polygonLine  = "#ff213680"
)

// Primitive is one visual element of the assembled map. Kind selects which of
// the remaining fields apply. Tooltip always equals the identifier that
// resolved the primitive.
type Primitive struct {
	Kind      string            `json:"kind"` // "marker", "circle" or "polygon"
	Tooltip   string            `json:"tooltip"`
	Popup     string            `json:"popup,omitempty"` // HTML fragment
	Lat       float64           `json:"lat,omitempty"`
	Lon       float64           `json:"lon,omitempty"`
	Radius    int               `json:"radius,omitempty"`
	Color     string            `json:"color,omitempty"`
	FillColor string            `json:"fill_color,omitempty"`
	Geometry  *geojson.Geometry `json:"geometry,omitempty"`
}

// Map is the output of one assembly run: an ordered primitive list plus the
// filtered booking relation it was built from. A Map belongs to a single
// render pass and is discarded, never updated.
type Map struct {
	CenterLat  float64          `json:"center_lat"`
	CenterLon  float64          `json:"center_lon"`
	Zoom       int              `json:"zoom"`
	Primitives []Primitive      `json:"primitives"`
	Bookings   []vatbook.BookingRecord `json:"bookings"`
}

// Assemble builds the map document from resolved stations, iterating in the
// order the resolver produced them (station ascending, inherited from the
// window filter). Draw-once deduplication already happened during resolution;
// assembly only lays out what it is given.
func Assemble(resolved []resolver.ResolvedStation, window []vatbook.BookingRecord) *Map {
	m := &Map{
		CenterLat: DefaultCenterLat,
		CenterLon: DefaultCenterLon,
		Zoom:      DefaultZoom,
		Bookings:  window,
	}

	rowsByStation := make(map[string][]vatbook.BookingRecord)
	for _, r := range window {
		rowsByStation[r.Station] = append(rowsByStation[r.Station], r)
	}

	for _, rs := range resolved {
		popup := popupHTML(rs.Station, rowsByStation[rs.Station])

		if rs.Marker != nil {
			m.Primitives = append(m.Primitives, Primitive{
				Kind:    "marker",
				Tooltip: rs.Station,
				Popup:   popup,
				Lat:     rs.Marker.Lat,
				Lon:     rs.Marker.Lon,
			})
		}
		if rs.Circle != nil {
			m.Primitives = append(m.Primitives, Primitive{
				Kind:      "circle",
				Tooltip:   rs.Station,
				Lat:       rs.Circle.Lat,
				Lon:       rs.Circle.Lon,
				Radius:    circleRadius,
				Color:     circleColor,
				FillColor: circleColor,
			})
		}
		for _, poly := range rs.Polygons {
			m.Primitives = append(m.Primitives, Primitive{
				Kind:      "polygon",
				Tooltip:   poly.Tooltip,
				Popup:     popup,
				Color:     polygonLine,
				FillColor: polygonFill,
				Geometry:  geojson.NewGeometry(poly.Geometry.Geometry),
			})
		}
	}

	return m
}

// popupHTML renders the station's active booking rows as a small HTML table.
func popupHTML(station string, rows []vatbook.BookingRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b><table><tr><th>position</th><th>date</th><th>start</th><th>end</th></tr>", html.EscapeString(station))
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(r.Position),
			r.Date.Format("2006-01-02"),
			r.Start, r.End)
	}
	b.WriteString("</table>")
	return b.String()
}
