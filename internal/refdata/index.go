package refdata

// Index holds the exact-match lookup tables the resolver works against.
// Airport rows with the same key stay in file order; the first row is the
// authoritative one when duplicates exist.
type Index struct {
	icao      map[string][]AirportEntry
	alt       map[string][]AirportEntry
	firOwners map[string]bool
	csPrefix  map[string]string // callsign prefix -> boundary id
	boundary  map[string]FirBoundary
}

// NewIndex builds the lookup tables from the loaded reference collections.
func NewIndex(airports []AirportEntry, firs []FirCallsignEntry, boundaries []FirBoundary) *Index {
	idx := &Index{
		icao:      make(map[string][]AirportEntry),
		alt:       make(map[string][]AirportEntry),
		firOwners: make(map[string]bool),
		csPrefix:  make(map[string]string, len(firs)),
		boundary:  make(map[string]FirBoundary, len(boundaries)),
	}

	for _, a := range airports {
		idx.icao[a.ICAO] = append(idx.icao[a.ICAO], a)
		if a.AltCode != "" {
			idx.alt[a.AltCode] = append(idx.alt[a.AltCode], a)
		}
		if a.OwningFIR != "" {
			idx.firOwners[a.OwningFIR] = true
		}
	}

	for _, f := range firs {
		// First mapping wins, like every other duplicate-key table here.
		if _, ok := idx.csPrefix[f.CallsignPrefix]; !ok {
			idx.csPrefix[f.CallsignPrefix] = f.BoundaryID
		}
	}

	for _, b := range boundaries {
		if _, ok := idx.boundary[b.ID]; !ok {
			idx.boundary[b.ID] = b
		}
	}

	return idx
}

// Airport returns the first airport row for a primary ICAO code.
func (idx *Index) Airport(code string) (AirportEntry, bool) {
	rows := idx.icao[code]
	if len(rows) == 0 {
		return AirportEntry{}, false
	}
	return rows[0], true
}

// AirportByAlt returns the first airport row for an alternate code.
func (idx *Index) AirportByAlt(code string) (AirportEntry, bool) {
	rows := idx.alt[code]
	if len(rows) == 0 {
		return AirportEntry{}, false
	}
	return rows[0], true
}

// IsFIROwner reports whether any airport row names the token as its owning FIR.
func (idx *Index) IsFIROwner(token string) bool {
	return idx.firOwners[token]
}

// BoundaryForPrefix maps a callsign prefix to its boundary id.
func (idx *Index) BoundaryForPrefix(prefix string) (string, bool) {
	id, ok := idx.csPrefix[prefix]
	return id, ok
}

// Boundary returns the boundary geometry for an id.
func (idx *Index) Boundary(id string) (FirBoundary, bool) {
	b, ok := idx.boundary[id]
	return b, ok
}
