// Package refdata loads and indexes the static reference tables: airports,
// FIR callsign mappings, and FIR boundary geometry. Everything here is loaded
// once at startup and read-only afterwards.
package refdata

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"booking_map/internal/vatbook"
)

// AirportEntry is one airport row of the reference file. Duplicate rows for
// the same ICAO code may exist; lookups take the first row.
type AirportEntry struct {
	ICAO      string  `json:"icao"`
	AltCode   string  `json:"alt_code"` // IATA/LID style secondary identifier
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	OwningFIR string  `json:"owning_fir"`
}

// FirCallsignEntry maps a controller callsign prefix to a boundary id.
type FirCallsignEntry struct {
	CallsignPrefix string `json:"callsign_prefix"`
	BoundaryID     string `json:"boundary_id"`
}

// FileLayout pins the fixed line offsets of the two embedded tables in the
// vendor file. The offsets are a fragile but intentional contract with the
// upstream data vendor; any drift is a hard failure, never silently skipped.
// Lines are 1-based, counting every line in the file.
type FileLayout struct {
	AirportHeaderLine int // line holding the airport table header
	AirportRows       int // number of airport data rows following it
	FIRHeaderLine     int // line holding the FIR table header
	FIRRows           int // number of FIR data rows following it
}

// DefaultLayout returns the offsets of the vendor file revision this loader
// was built against.
func DefaultLayout() FileLayout {
	return FileLayout{
		AirportHeaderLine: 330,
		AirportRows:       17467,
		FIRHeaderLine:     17800,
		FIRRows:           641,
	}
}

// Columns expected in each table header. A header that does not carry all of
// them means the vendor format drifted.
var (
	airportColumns = []string{"ICAO", "Latitude Decimal", "Longitude Decimal", "IATA/LID", "FIR"}
	firColumns     = []string{"CALLSIGN PREFIX", "FIR BOUNDARY"}
)

// LoadAirports parses the airport table out of the vendor file. Rows missing
// required columns are skipped with a diagnostic; a header mismatch or a file
// shorter than the layout promises is an error.
func LoadAirports(r io.Reader, layout FileLayout) ([]AirportEntry, []vatbook.Diagnostic, error) {
	header, rows, err := readTable(r, layout.AirportHeaderLine, layout.AirportRows)
	if err != nil {
		return nil, nil, fmt.Errorf("airport table: %w", err)
	}

	cols, err := columnIndexes(header, airportColumns)
	if err != nil {
		return nil, nil, fmt.Errorf("airport table: %w", err)
	}

	airports := make([]AirportEntry, 0, len(rows))
	var diags []vatbook.Diagnostic

	for i, row := range rows {
		fields := strings.Split(row, "|")
		get := func(name string) (string, bool) {
			idx := cols[name]
			if idx >= len(fields) {
				return "", false
			}
			return strings.TrimSpace(fields[idx]), true
		}

		icao, okICAO := get("ICAO")
		latStr, okLat := get("Latitude Decimal")
		lonStr, okLon := get("Longitude Decimal")
		alt, _ := get("IATA/LID")
		fir, _ := get("FIR")

		if !okICAO || !okLat || !okLon || icao == "" {
			diags = append(diags, vatbook.Diagnostic{
				Stage:   "refdata",
				Subject: fmt.Sprintf("airport row %d", layout.AirportHeaderLine+1+i),
				Detail:  "missing required columns",
			})
			continue
		}

		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			diags = append(diags, vatbook.Diagnostic{
				Stage:   "refdata",
				Subject: icao,
				Detail:  "unparseable coordinates",
			})
			continue
		}

		airports = append(airports, AirportEntry{
			ICAO:      icao,
			AltCode:   alt,
			Lat:       lat,
			Lon:       lon,
			OwningFIR: fir,
		})
	}

	return airports, diags, nil
}

// LoadFIRCallsigns parses the FIR callsign table out of the vendor file.
func LoadFIRCallsigns(r io.Reader, layout FileLayout) ([]FirCallsignEntry, []vatbook.Diagnostic, error) {
	header, rows, err := readTable(r, layout.FIRHeaderLine, layout.FIRRows)
	if err != nil {
		return nil, nil, fmt.Errorf("fir table: %w", err)
	}

	cols, err := columnIndexes(header, firColumns)
	if err != nil {
		return nil, nil, fmt.Errorf("fir table: %w", err)
	}

	entries := make([]FirCallsignEntry, 0, len(rows))
	var diags []vatbook.Diagnostic

	for i, row := range rows {
		fields := strings.Split(row, "|")

		prefixIdx, boundaryIdx := cols["CALLSIGN PREFIX"], cols["FIR BOUNDARY"]
		if prefixIdx >= len(fields) || boundaryIdx >= len(fields) {
			diags = append(diags, vatbook.Diagnostic{
				Stage:   "refdata",
				Subject: fmt.Sprintf("fir row %d", layout.FIRHeaderLine+1+i),
				Detail:  "missing required columns",
			})
			continue
		}

		prefix := strings.TrimSpace(fields[prefixIdx])
		boundary := strings.TrimSpace(fields[boundaryIdx])
		if prefix == "" || boundary == "" {
			diags = append(diags, vatbook.Diagnostic{
				Stage:   "refdata",
				Subject: fmt.Sprintf("fir row %d", layout.FIRHeaderLine+1+i),
				Detail:  "empty callsign prefix or boundary id",
			})
			continue
		}

		entries = append(entries, FirCallsignEntry{
			CallsignPrefix: prefix,
			BoundaryID:     boundary,
		})
	}

	return entries, diags, nil
}

// readTable returns the header line at headerLine and the nrows lines after
// it. Running out of input before the table ends is a format-drift error.
func readTable(r io.Reader, headerLine, nrows int) (string, []string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	var header string
	rows := make([]string, 0, nrows)

	for scanner.Scan() {
		line++
		if line < headerLine {
			continue
		}
		if line == headerLine {
			header = scanner.Text()
			continue
		}
		rows = append(rows, scanner.Text())
		if len(rows) == nrows {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("read: %w", err)
	}
	if header == "" {
		return "", nil, fmt.Errorf("file ends before header line %d", headerLine)
	}
	if len(rows) < nrows {
		return "", nil, fmt.Errorf("expected %d data rows after line %d, got %d", nrows, headerLine, len(rows))
	}

	return header, rows, nil
}

// columnIndexes maps the required column names to their positions in the
// header. The vendor prefixes the first column with ";" (a comment marker for
// other consumers); it is stripped before matching.
func columnIndexes(header string, required []string) (map[string]int, error) {
	fields := strings.Split(header, "|")
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(f), ";"))
		byName[name] = i
	}

	cols := make(map[string]int, len(required))
	for _, name := range required {
		idx, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("header missing column %q", name)
		}
		cols[name] = idx
	}
	return cols, nil
}
