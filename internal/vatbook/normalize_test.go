package vatbook

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexEpoch_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FlexEpoch
	}{
		{"number", `1735732800`, 1735732800},
		{"string", `"1735732800"`, 1735732800},
		{"empty string", `""`, 0},
		{"garbage string", `"not-a-number"`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexEpoch
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if f != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, f, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	// 2025-01-01 12:00:00 UTC to 14:30:00 UTC.
	start := FlexEpoch(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).Unix())
	end := FlexEpoch(time.Date(2025, 1, 1, 14, 30, 0, 0, time.UTC).Unix())

	raw := []RawBooking{
		{Position: "EGLL_TWR", Start: start, End: end, VatsimID: "123", Name: "dropped"},
		{Position: "EDWW_H_CTR", Start: start, End: end},
	}

	records, diags := Normalize(raw)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	r := records[0]
	if r.Station != "EGLL" || r.Position != "TWR" {
		t.Errorf("split = %q/%q, want EGLL/TWR", r.Station, r.Position)
	}
	if got := r.Date.Format("2006-01-02"); got != "2025-01-01" {
		t.Errorf("Date = %s, want 2025-01-01", got)
	}
	if r.Start.String() != "12:00:00" || r.End.String() != "14:30:00" {
		t.Errorf("clocks = %s/%s, want 12:00:00/14:30:00", r.Start, r.End)
	}

	// A compound role suffix splits only at the first underscore.
	if records[1].Station != "EDWW" || records[1].Position != "H_CTR" {
		t.Errorf("split = %q/%q, want EDWW/H_CTR", records[1].Station, records[1].Position)
	}
}

func TestNormalize_RejectsSeparatorless(t *testing.T) {
	raw := []RawBooking{
		{Position: "LHR", Start: 1000, End: 2000},
		{Position: "EGLL_GND", Start: 1000, End: 2000},
	}

	records, diags := Normalize(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Station != "EGLL" {
		t.Errorf("surviving record station = %q, want EGLL", records[0].Station)
	}
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	if diags[0].Stage != "normalize" || diags[0].Subject != "LHR" {
		t.Errorf("diagnostic = %+v, want normalize/LHR", diags[0])
	}
}

func TestActiveAt(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(station string, startHour, endHour int) BookingRecord {
		return BookingRecord{
			Station:  station,
			Position: "TWR",
			Date:     day,
			Start:    Clock(startHour * 3600),
			End:      Clock(endHour * 3600),
		}
	}

	records := []BookingRecord{
		mk("LOWW", 10, 12),
		mk("EGLL", 11, 13),
		mk("EDDF", 14, 16),
		{Station: "LFPG", Position: "TWR", Date: day.AddDate(0, 0, 1), Start: Clock(11 * 3600), End: Clock(13 * 3600)},
	}

	active := ActiveAt(records, time.Date(2025, 1, 1, 11, 30, 0, 0, time.UTC))
	if len(active) != 2 {
		t.Fatalf("got %d active records, want 2", len(active))
	}
	// Sorted by station ascending.
	if active[0].Station != "EGLL" || active[1].Station != "LOWW" {
		t.Errorf("order = %s, %s; want EGLL, LOWW", active[0].Station, active[1].Station)
	}
}

func TestActiveAt_WindowBounds(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []BookingRecord{{
		Station: "EGLL", Position: "TWR", Date: day,
		Start: Clock(10 * 3600), End: Clock(12 * 3600),
	}}

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"before start", time.Date(2025, 1, 1, 9, 59, 59, 0, time.UTC), 0},
		{"at start (inclusive)", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), 1},
		{"inside", time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC), 1},
		{"at end (exclusive)", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), 0},
		{"wrong day same clock", time.Date(2025, 1, 2, 11, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(ActiveAt(records, tt.at)); got != tt.want {
				t.Errorf("ActiveAt(%s) returned %d records, want %d", tt.at, got, tt.want)
			}
		})
	}
}

func TestStations(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []BookingRecord{
		{Station: "EDWW", Position: "H_CTR", Date: day},
		{Station: "EGLL", Position: "TWR", Date: day},
		{Station: "EDWW", Position: "B_CTR", Date: day},
	}

	order, roles := Stations(records)
	if len(order) != 2 || order[0] != "EDWW" || order[1] != "EGLL" {
		t.Fatalf("order = %v, want [EDWW EGLL]", order)
	}
	if len(roles["EDWW"]) != 2 || roles["EDWW"][0] != "H_CTR" || roles["EDWW"][1] != "B_CTR" {
		t.Errorf("EDWW roles = %v, want [H_CTR B_CTR]", roles["EDWW"])
	}
}
