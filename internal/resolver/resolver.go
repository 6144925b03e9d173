// Package resolver classifies booking station tokens and resolves them to map
// geometry. Each distinct station in a time window is matched against the
// reference data through a fixed priority cascade: primary ICAO airport,
// alternate-code airport, FIR boundary fallback. A token naming both an
// airport and a FIR authority resolves as both; the two presentations are
// independent visual layers.
package resolver

import (
	"strings"

	"booking_map/internal/refdata"
	"booking_map/internal/vatbook"
)

// Kind is the classification a station token resolved to.
type Kind string

const (
	KindAirport    Kind = "airport"
	KindAltAirport Kind = "alt_airport"
	KindFir        Kind = "fir"
	KindUnresolved Kind = "unresolved"
)

// Point is a geographic coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PolygonRef is one FIR polygon emitted for a station. Tooltip is the
// identifier that actually matched, kept for traceability.
type PolygonRef struct {
	BoundaryID string
	Tooltip    string
	Geometry   refdata.FirBoundary
}

// ResolvedStation is the transient per-station resolution result. Marker and
// Circle are nil when the station's roles place no such primitive; Polygons is
// empty when no FIR side exists or every matched boundary was already drawn
// earlier in the pass.
type ResolvedStation struct {
	Station  string
	Kind     Kind
	Roles    []string
	Marker   *Point
	Circle   *Point
	Polygons []PolygonRef
}

// Pass owns the mutable state of one render pass: the draw-once bookkeeping
// for boundaries and the diagnostics collected along the way. Reference data
// stays shared and read-only; a fresh Pass per render keeps concurrent
// renders from suppressing each other's polygons.
type Pass struct {
	idx   *refdata.Index
	drawn map[string]bool
	diags []vatbook.Diagnostic
}

// NewPass starts a render pass against the given reference index.
func NewPass(idx *refdata.Index) *Pass {
	return &Pass{
		idx:   idx,
		drawn: make(map[string]bool),
	}
}

// Diagnostics returns the resolution gaps recorded so far.
func (p *Pass) Diagnostics() []vatbook.Diagnostic {
	return p.diags
}

// ResolveAll resolves every distinct station of an ordered booking window,
// preserving the window's station order.
func (p *Pass) ResolveAll(records []vatbook.BookingRecord) []ResolvedStation {
	stations, roles := vatbook.Stations(records)

	resolved := make([]ResolvedStation, 0, len(stations))
	for _, s := range stations {
		resolved = append(resolved, p.Resolve(s, roles[s]))
	}
	return resolved
}

// Resolve classifies one station token given the role suffixes observed for
// it in the current window.
func (p *Pass) Resolve(station string, roles []string) ResolvedStation {
	rs := ResolvedStation{Station: station, Kind: KindUnresolved, Roles: roles}

	primary, hasICAO := p.idx.Airport(station)
	alternate, hasAlt := p.idx.AirportByAlt(station)
	isOwner := p.idx.IsFIROwner(station)
	_, isPrefix := p.idx.BoundaryForPrefix(station)

	switch {
	// Dual identity: one code names both a civil airport and an overlapping
	// FIR authority. Emit both layers.
	case hasICAO && (isOwner || isPrefix):
		rs.Kind = KindAirport
		p.placeAirport(&rs, primary)
		p.resolveFir(&rs)

	case hasAlt && (isOwner || isPrefix):
		rs.Kind = KindAltAirport
		p.placeAirport(&rs, alternate)
		p.resolveFir(&rs)

	case hasICAO:
		rs.Kind = KindAirport
		p.placeAirport(&rs, primary)

	case hasAlt:
		rs.Kind = KindAltAirport
		p.placeAirport(&rs, alternate)

	default:
		if matched := p.resolveFir(&rs); matched > 0 {
			rs.Kind = KindFir
		} else {
			p.diags = append(p.diags, vatbook.Diagnostic{
				Stage:   "resolve",
				Subject: station,
				Detail:  "station matched no airport, alternate code, or boundary",
			})
		}
	}

	return rs
}

// placeAirport applies the marker-vs-circle role logic at the airport's
// coordinates. The resolved station itself is the placement accumulator:
// rs.Marker doubles as the marker-placed guard, so the approach branch can
// tell whether a ground role already put one down.
func (p *Pass) placeAirport(rs *ResolvedStation, row refdata.AirportEntry) {
	at := Point{Lat: row.Lat, Lon: row.Lon}

	if anyRole(rs.Roles, "DEL", "GND", "TWR") {
		rs.Marker = &at
	}
	if anyRole(rs.Roles, "APP") {
		if rs.Marker == nil {
			rs.Marker = &at
		}
		rs.Circle = &at
	}
}

func anyRole(roles []string, substrings ...string) bool {
	for _, r := range roles {
		for _, s := range substrings {
			if strings.Contains(r, s) {
				return true
			}
		}
	}
	return false
}
