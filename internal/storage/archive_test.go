package storage

import (
	"testing"
	"time"

	"booking_map/internal/vatbook"
)

func TestArchiveRoundTrip(t *testing.T) {
	a, err := OpenArchive(":memory:")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	records := []vatbook.BookingRecord{
		{
			Station:  "EGLL",
			Position: "TWR",
			Date:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			Start:    vatbook.ClockOf(start),
			End:      vatbook.ClockOf(end),
			StartUTC: start,
			EndUTC:   end,
		},
	}
	diags := []vatbook.Diagnostic{
		{Stage: "normalize", Subject: "LHR", Detail: "position has no station/role separator"},
	}

	id, err := a.StoreSnapshot(start, records, diags)
	if err != nil {
		t.Fatalf("StoreSnapshot: %v", err)
	}
	if id == 0 {
		t.Fatal("snapshot id is zero")
	}

	got, err := a.LoadSnapshot(id)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}

	r := got[0]
	if r.Station != "EGLL" || r.Position != "TWR" {
		t.Errorf("record = %+v", r)
	}
	if !r.StartUTC.Equal(start) || !r.EndUTC.Equal(end) {
		t.Errorf("instants = %v / %v", r.StartUTC, r.EndUTC)
	}

	// Date and clocks are recomputed from the stored instants.
	if !r.Date.Equal(records[0].Date) {
		t.Errorf("date = %v", r.Date)
	}
	if r.Start != records[0].Start || r.End != records[0].End {
		t.Errorf("clocks = %v / %v", r.Start, r.End)
	}

	latest, err := a.LatestSnapshotID()
	if err != nil {
		t.Fatalf("LatestSnapshotID: %v", err)
	}
	if latest != id {
		t.Errorf("latest = %d, want %d", latest, id)
	}
}

func TestLatestSnapshotID_Empty(t *testing.T) {
	a, err := OpenArchive(":memory:")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	id, err := a.LatestSnapshotID()
	if err != nil {
		t.Fatalf("LatestSnapshotID: %v", err)
	}
	if id != 0 {
		t.Errorf("latest = %d, want 0 for empty archive", id)
	}
}
