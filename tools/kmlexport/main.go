// Package main provides a tool to export one booking map render to KML
// format. KML (Keyhole Markup Language) files can be viewed in Google Earth,
// Google Maps, and other mapping applications.
package main

import (
	"context"
	"encoding/xml"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"booking_map/internal/engine"
	"booking_map/internal/feed"
	"booking_map/internal/refdata"
	"booking_map/internal/resolver"
)

// KML structures for XML marshalling.
// These follow the KML 2.2 specification: https://developers.google.com/kml/documentation/kmlreference

// KML is the root element of a KML document.
type KML struct {
	XMLName   xml.Name `xml:"kml"`
	Namespace string   `xml:"xmlns,attr"`
	Document  Document `xml:"Document"`
}

// Document contains the document metadata and features.
type Document struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description,omitempty"`
	Styles      []Style     `xml:"Style,omitempty"`
	Placemarks  []Placemark `xml:"Placemark"`
}

// Style defines the visual appearance of features.
type Style struct {
	ID        string     `xml:"id,attr"`
	IconStyle *IconStyle `xml:"IconStyle,omitempty"`
	LineStyle *LineStyle `xml:"LineStyle,omitempty"`
	PolyStyle *PolyStyle `xml:"PolyStyle,omitempty"`
}

// IconStyle defines how icons are displayed.
type IconStyle struct {
	Scale float64 `xml:"scale,omitempty"`
	Icon  Icon    `xml:"Icon"`
}

// Icon specifies the icon image.
type Icon struct {
	Href string `xml:"href"`
}

// LineStyle defines polygon outline appearance.
type LineStyle struct {
	Color string `xml:"color,omitempty"` // aabbggrr
	Width int    `xml:"width,omitempty"`
}

// PolyStyle defines polygon fill appearance.
type PolyStyle struct {
	Color string `xml:"color,omitempty"` // aabbggrr
}

// Placemark represents a geographic feature with geometry and metadata.
type Placemark struct {
	Name          string         `xml:"name"`
	Description   string         `xml:"description,omitempty"`
	StyleURL      string         `xml:"styleUrl,omitempty"`
	Point         *Point         `xml:"Point,omitempty"`
	MultiGeometry *MultiGeometry `xml:"MultiGeometry,omitempty"`
}

// Point represents a geographic location.
type Point struct {
	Coordinates string `xml:"coordinates"` // Format: lon,lat,altitude
}

// MultiGeometry wraps one or more polygons.
type MultiGeometry struct {
	Polygons []Polygon `xml:"Polygon"`
}

// Polygon is a closed area with an outer ring.
type Polygon struct {
	OuterBoundary OuterBoundary `xml:"outerBoundaryIs"`
}

// OuterBoundary holds the outer ring of a polygon.
type OuterBoundary struct {
	Ring LinearRing `xml:"LinearRing"`
}

// LinearRing is a closed coordinate sequence.
type LinearRing struct {
	Coordinates string `xml:"coordinates"`
}

func main() {
	vatspyPath := flag.String("vatspy", os.Getenv("VATSPY_PATH"), "Airport/FIR reference file")
	boundariesPath := flag.String("boundaries", os.Getenv("BOUNDARIES_PATH"), "FIR boundary GeoJSON file")
	feedURL := flag.String("feed-url", os.Getenv("FEED_URL"), "Booking feed URL")
	at := flag.String("at", "", "Instant to render, RFC3339 (default: now)")
	output := flag.String("output", "", "Output KML file (default: stdout)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *vatspyPath == "" || *boundariesPath == "" || *feedURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -vatspy, -boundaries and -feed-url are required")
		os.Exit(2)
	}

	instant := time.Now().UTC()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -at value: %v\n", err)
			os.Exit(2)
		}
		instant = t.UTC()
	}

	idx, _, err := engine.LoadReference(*vatspyPath, *boundariesPath, refdata.DefaultLayout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading reference data: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(idx, feed.NewHTTPSource(*feedURL))
	if err := eng.LoadSnapshot(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching feed: %v\n", err)
		os.Exit(1)
	}

	res, err := eng.Render(instant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Exporting %d resolved stations to KML\n", len(res.Resolved))
	}

	kml := generateKML(instant, res.Resolved)

	xmlData, err := xml.MarshalIndent(kml, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating KML: %v\n", err)
		os.Exit(1)
	}

	xmlOutput := xml.Header + string(xmlData)

	if *output != "" {
		if err := os.WriteFile(*output, []byte(xmlOutput), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", *output)
		}
	} else {
		fmt.Println(xmlOutput)
	}
}

// generateKML creates a KML document from the resolved stations.
func generateKML(instant time.Time, resolved []resolver.ResolvedStation) KML {
	var placemarks []Placemark

	for _, rs := range resolved {
		if rs.Marker != nil {
			placemarks = append(placemarks, Placemark{
				Name:        rs.Station,
				Description: "Booked positions: " + strings.Join(rs.Roles, ", "),
				StyleURL:    "#stationStyle",
				Point: &Point{
					// KML coordinates are in the format: longitude,latitude,altitude
					Coordinates: fmt.Sprintf("%.6f,%.6f,0", rs.Marker.Lon, rs.Marker.Lat),
				},
			})
		}

		for _, poly := range rs.Polygons {
			placemarks = append(placemarks, Placemark{
				Name:          poly.Tooltip,
				Description:   fmt.Sprintf("FIR boundary %s, booked via %s", poly.BoundaryID, rs.Station),
				StyleURL:      "#firStyle",
				MultiGeometry: geometryToKML(poly.Geometry.Geometry),
			})
		}
	}

	return KML{
		Namespace: "http://www.opengis.net/kml/2.2",
		Document: Document{
			Name: "ATC Bookings",
			Description: fmt.Sprintf("Booked ATC stations active at %s. Generated %s.",
				instant.Format(time.RFC3339), time.Now().Format("2006-01-02 15:04:05")),
			Styles: []Style{
				{
					ID: "stationStyle",
					IconStyle: &IconStyle{
						Scale: 0.8,
						Icon: Icon{
							Href: "http://maps.google.com/mapfiles/kml/shapes/placemark_circle.png",
						},
					},
				},
				{
					ID:        "firStyle",
					LineStyle: &LineStyle{Color: "803621ff", Width: 2},
					PolyStyle: &PolyStyle{Color: "802f53f5"},
				},
			},
			Placemarks: placemarks,
		},
	}
}

// geometryToKML converts boundary geometry to KML polygons. Only outer rings
// are exported; FIR boundaries carry no holes in practice.
func geometryToKML(g orb.Geometry) *MultiGeometry {
	var polys []orb.Polygon
	switch geo := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{geo}
	case orb.MultiPolygon:
		polys = geo
	default:
		return nil
	}

	mg := &MultiGeometry{}
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		var coords []string
		for _, pt := range p[0] {
			coords = append(coords, fmt.Sprintf("%.6f,%.6f,0", pt.Lon(), pt.Lat()))
		}
		mg.Polygons = append(mg.Polygons, Polygon{
			OuterBoundary: OuterBoundary{
				Ring: LinearRing{Coordinates: strings.Join(coords, " ")},
			},
		})
	}
	return mg
}
