package refdata

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestIndex_FirstRowWins(t *testing.T) {
	airports := []AirportEntry{
		{ICAO: "EGLL", AltCode: "LHR", Lat: 51.4775, Lon: -0.4614, OwningFIR: "EGTT"},
		{ICAO: "EGLL", AltCode: "LHR", Lat: 0, Lon: 0, OwningFIR: "EGTT"},
		{ICAO: "EDDB", AltCode: "BER", Lat: 52.3667, Lon: 13.5033, OwningFIR: "EDWW"},
	}
	firs := []FirCallsignEntry{
		{CallsignPrefix: "EDWW_H", BoundaryID: "EDWW-H"},
		{CallsignPrefix: "EDWW_H", BoundaryID: "WRONG"},
	}
	boundaries := []FirBoundary{
		{ID: "EDWW-H", Geometry: orb.Polygon{{{8, 52}, {10, 52}, {10, 54}, {8, 52}}}},
	}

	idx := NewIndex(airports, firs, boundaries)

	a, ok := idx.Airport("EGLL")
	if !ok || a.Lat != 51.4775 {
		t.Errorf("Airport(EGLL) = %+v, %v; want first row", a, ok)
	}
	if _, ok := idx.Airport("ZZZZ"); ok {
		t.Error("Airport(ZZZZ) should miss")
	}

	a, ok = idx.AirportByAlt("BER")
	if !ok || a.ICAO != "EDDB" {
		t.Errorf("AirportByAlt(BER) = %+v, %v", a, ok)
	}

	if !idx.IsFIROwner("EGTT") || !idx.IsFIROwner("EDWW") {
		t.Error("owning FIRs not indexed")
	}
	if idx.IsFIROwner("EGLL") {
		t.Error("EGLL is not a FIR")
	}

	id, ok := idx.BoundaryForPrefix("EDWW_H")
	if !ok || id != "EDWW-H" {
		t.Errorf("BoundaryForPrefix(EDWW_H) = %q, %v; want EDWW-H", id, ok)
	}

	if _, ok := idx.Boundary("EDWW-H"); !ok {
		t.Error("Boundary(EDWW-H) should hit")
	}
}
