package maprender

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/map.html
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/map.html"))

// WriteHTML renders the map document as a self-contained Leaflet page.
func (m *Map) WriteHTML(w io.Writer) error {
	primitives, err := json.Marshal(m.Primitives)
	if err != nil {
		return fmt.Errorf("marshal primitives: %w", err)
	}

	data := struct {
		CenterLat  float64
		CenterLon  float64
		Zoom       int
		Primitives template.JS
		Bookings   []bookingRow
	}{
		CenterLat:  m.CenterLat,
		CenterLon:  m.CenterLon,
		Zoom:       m.Zoom,
		Primitives: template.JS(primitives),
	}

	for _, r := range m.Bookings {
		data.Bookings = append(data.Bookings, bookingRow{
			Station:  r.Station,
			Position: r.Position,
			Date:     r.Date.Format("2006-01-02"),
			Start:    r.Start.String(),
			End:      r.End.String(),
		})
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

type bookingRow struct {
	Station  string
	Position string
	Date     string
	Start    string
	End      string
}
