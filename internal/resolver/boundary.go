package resolver

import (
	"strings"

	"booking_map/internal/refdata"
	"booking_map/internal/vatbook"
)

// sectorID carries the identifiers derived from one role-qualified station
// token, e.g. station EDWW with suffix H_CTR yields formatted id EDWW-H,
// callsign prefix EDWW_H and root EDWW.
type sectorID struct {
	Working   string // station joined with the role suffix, EDWW-H_CTR
	Formatted string // truncated FIR id, EDWW-H
	Prefix    string // derived callsign prefix, EDWW_H
	Root      string // bare station token, EDWW
}

func deriveSectorID(station, suffix string) sectorID {
	working := station + "-" + suffix

	// Truncate at the first underscore when one exists, otherwise at the
	// first hyphen.
	var formatted string
	if i := strings.Index(working, "_"); i >= 0 {
		formatted = working[:i]
	} else {
		formatted = working[:strings.Index(working, "-")]
	}

	// At most the first two hyphen-delimited segments, joined with an
	// underscore. Only used for the callsign-prefix lookup path.
	segs := strings.Split(formatted, "-")
	n := len(segs)
	if n > 2 {
		n = 2
	}
	prefix := strings.Join(segs[:n], "_")

	return sectorID{
		Working:   working,
		Formatted: formatted,
		Prefix:    prefix,
		Root:      segs[0],
	}
}

// boundaryStrategy is one step of the FIR matching cascade. It reports the
// boundary id it resolved to and the identifier that matched (the tooltip).
type boundaryStrategy struct {
	name  string
	match func(idx *refdata.Index, c sectorID) (boundaryID, tooltip string, ok bool)
}

// boundaryStrategies is tried in order; the first match wins. The icao-root
// step discards sector information on purpose: a deliberately approximate
// last resort when no precise mapping exists.
var boundaryStrategies = []boundaryStrategy{
	{
		name: "direct",
		match: func(idx *refdata.Index, c sectorID) (string, string, bool) {
			if _, ok := idx.Boundary(c.Formatted); ok {
				return c.Formatted, c.Formatted, true
			}
			return "", "", false
		},
	},
	{
		name: "callsign-prefix",
		match: func(idx *refdata.Index, c sectorID) (string, string, bool) {
			id, ok := idx.BoundaryForPrefix(c.Prefix)
			if !ok {
				return "", "", false
			}
			if _, ok := idx.Boundary(id); !ok {
				// The prefix table points at geometry we do not have;
				// let the root fallback have a try.
				return "", "", false
			}
			return id, c.Prefix, true
		},
	},
	{
		name: "icao-root",
		match: func(idx *refdata.Index, c sectorID) (string, string, bool) {
			if _, ok := idx.Boundary(c.Root); ok {
				return c.Root, c.Root, true
			}
			return "", "", false
		},
	},
}

// resolveFir runs the boundary cascade for every distinct role suffix of the
// station. A boundary already drawn in this pass counts as matched but emits
// nothing; a sector matching no step is recorded as a resolution gap and
// dropped. Returns the number of matched sectors.
func (p *Pass) resolveFir(rs *ResolvedStation) int {
	matched := 0
	seen := make(map[string]bool, len(rs.Roles))

	for _, suffix := range rs.Roles {
		if seen[suffix] {
			continue
		}
		seen[suffix] = true

		c := deriveSectorID(rs.Station, suffix)

		var hit bool
		for _, s := range boundaryStrategies {
			id, tooltip, ok := s.match(p.idx, c)
			if !ok {
				continue
			}
			hit = true
			matched++

			if p.drawn[id] {
				// Expected when several sectors of one FIR share a window.
				break
			}
			p.drawn[id] = true

			b, _ := p.idx.Boundary(id)
			rs.Polygons = append(rs.Polygons, PolygonRef{
				BoundaryID: id,
				Tooltip:    tooltip,
				Geometry:   b,
			})
			break
		}

		if !hit {
			p.diags = append(p.diags, vatbook.Diagnostic{
				Stage:   "resolve",
				Subject: c.Working,
				Detail:  "no boundary match for sector",
			})
		}
	}

	return matched
}
