package resolver

import (
	"testing"
	"time"

	"booking_map/internal/refdata"
	"booking_map/internal/vatbook"
)

func resolverIndex() *refdata.Index {
	return refdata.NewIndex(
		[]refdata.AirportEntry{
			{ICAO: "EGLL", AltCode: "LHR", Lat: 51.4775, Lon: -0.4614, OwningFIR: "EGTT"},
			{ICAO: "EGLL", AltCode: "LHR", Lat: 99, Lon: 99, OwningFIR: "EGTT"},
			{ICAO: "LOWW", AltCode: "VIE", Lat: 48.1103, Lon: 16.5697, OwningFIR: "LOVV"},
			{ICAO: "EDDB", AltCode: "BER", Lat: 52.3667, Lon: 13.5033, OwningFIR: "EDWW"},
		},
		[]refdata.FirCallsignEntry{
			{CallsignPrefix: "EGTT", BoundaryID: "EGTT"},
			{CallsignPrefix: "LOWW", BoundaryID: "LOWW"},
		},
		[]refdata.FirBoundary{
			{ID: "EGTT", Geometry: poly(0)},
			{ID: "EDWW", Geometry: poly(2)},
			{ID: "LOWW", Geometry: poly(4)},
		},
	)
}

func TestResolve_AirportRoles(t *testing.T) {
	tests := []struct {
		name       string
		station    string
		roles      []string
		wantKind   Kind
		wantMarker bool
		wantCircle bool
	}{
		{"tower marker only", "EDDB", []string{"TWR"}, KindAirport, true, false},
		{"ground marker only", "EDDB", []string{"GND"}, KindAirport, true, false},
		{"delivery marker only", "EDDB", []string{"DEL"}, KindAirport, true, false},
		{"approach marker and circle", "EDDB", []string{"APP"}, KindAirport, true, true},
		{"tower and approach share one marker", "EDDB", []string{"TWR", "APP"}, KindAirport, true, true},
		{"unknown suffix places nothing", "EDDB", []string{"X"}, KindAirport, false, false},
		{"alternate code", "VIE", []string{"TWR"}, KindAltAirport, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPass(resolverIndex())
			rs := p.Resolve(tt.station, tt.roles)
			if rs.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", rs.Kind, tt.wantKind)
			}
			if (rs.Marker != nil) != tt.wantMarker {
				t.Errorf("marker present = %v, want %v", rs.Marker != nil, tt.wantMarker)
			}
			if (rs.Circle != nil) != tt.wantCircle {
				t.Errorf("circle present = %v, want %v", rs.Circle != nil, tt.wantCircle)
			}
		})
	}
}

func TestResolve_DuplicateAirportUsesFirstRow(t *testing.T) {
	p := NewPass(resolverIndex())
	rs := p.Resolve("EGLL", []string{"TWR"})
	if rs.Marker == nil {
		t.Fatal("expected marker")
	}
	if rs.Marker.Lat != 51.4775 || rs.Marker.Lon != -0.4614 {
		t.Errorf("marker at %v, want first file row (51.4775, -0.4614)", *rs.Marker)
	}
}

func TestResolve_DualIdentity(t *testing.T) {
	// LOWW is both an airport ICAO and a boundary id; an approach booking
	// produces the airport layers and the FIR polygon.
	p := NewPass(resolverIndex())
	rs := p.Resolve("LOWW", []string{"APP"})
	if rs.Kind != KindAirport {
		t.Errorf("kind = %s, want airport", rs.Kind)
	}
	if rs.Marker == nil || rs.Circle == nil {
		t.Error("expected approach marker and circle")
	}
	if len(rs.Polygons) != 1 || rs.Polygons[0].BoundaryID != "LOWW" {
		t.Errorf("polygons = %+v, want LOWW boundary", rs.Polygons)
	}
}

func TestResolve_FirFallback(t *testing.T) {
	p := NewPass(resolverIndex())
	rs := p.Resolve("EGTT", []string{"CTR"})
	if rs.Kind != KindFir {
		t.Errorf("kind = %s, want fir", rs.Kind)
	}
	if rs.Marker != nil || rs.Circle != nil {
		t.Error("FIR stations place no airport primitives")
	}
	if len(rs.Polygons) != 1 || rs.Polygons[0].BoundaryID != "EGTT" {
		t.Errorf("polygons = %+v, want EGTT", rs.Polygons)
	}
}

func TestResolve_Unresolved(t *testing.T) {
	p := NewPass(resolverIndex())
	rs := p.Resolve("XXXX", []string{"CTR"})
	if rs.Kind != KindUnresolved {
		t.Errorf("kind = %s, want unresolved", rs.Kind)
	}
	diags := p.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %+v, want sector gap plus station gap", diags)
	}
	if diags[1].Subject != "XXXX" {
		t.Errorf("station diagnostic subject = %q", diags[1].Subject)
	}
}

func TestResolveAll_WindowOrder(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	records := []vatbook.BookingRecord{
		{Station: "EDDB", Position: "TWR", Date: day, Start: 10 * 3600, End: 12 * 3600},
		{Station: "EGLL", Position: "APP", Date: day, Start: 10 * 3600, End: 12 * 3600},
		{Station: "EGLL", Position: "TWR", Date: day, Start: 10 * 3600, End: 12 * 3600},
	}

	p := NewPass(resolverIndex())
	resolved := p.ResolveAll(records)
	if len(resolved) != 2 {
		t.Fatalf("got %d stations, want 2", len(resolved))
	}
	if resolved[0].Station != "EDDB" || resolved[1].Station != "EGLL" {
		t.Errorf("station order = %s, %s", resolved[0].Station, resolved[1].Station)
	}
	if resolved[1].Circle == nil {
		t.Error("EGLL approach role should add a circle")
	}
}
