package vatbook

import (
	"sort"
	"strings"
	"time"
)

// Normalize converts raw feed entries into booking records. A position with no
// underscore separator cannot be split into station and role and is rejected
// with a diagnostic; the remaining entries still normalize.
func Normalize(raw []RawBooking) ([]BookingRecord, []Diagnostic) {
	records := make([]BookingRecord, 0, len(raw))
	var diags []Diagnostic

	for _, b := range raw {
		station, suffix, ok := strings.Cut(b.Position, "_")
		if !ok || station == "" || suffix == "" {
			diags = append(diags, Diagnostic{
				Stage:   "normalize",
				Subject: b.Position,
				Detail:  "position has no station/role separator",
			})
			continue
		}

		start := b.Start.Time()
		end := b.End.Time()

		records = append(records, BookingRecord{
			Station:  station,
			Position: suffix,
			Date:     midnight(start),
			Start:    ClockOf(start),
			End:      ClockOf(end),
			StartUTC: start,
			EndUTC:   end,
		})
	}

	return records, diags
}

// ActiveAt selects the bookings active at the given instant: same UTC date and
// start <= t < end. The result is ordered by station ascending; an empty
// result is valid.
func ActiveAt(records []BookingRecord, instant time.Time) []BookingRecord {
	day := midnight(instant)
	clock := ClockOf(instant)

	var active []BookingRecord
	for _, r := range records {
		if r.Date.Equal(day) && r.Start <= clock && clock < r.End {
			active = append(active, r)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Station < active[j].Station
	})
	return active
}

// Stations returns the distinct stations of an ordered booking slice together
// with each station's role suffixes, preserving first-seen order.
func Stations(records []BookingRecord) ([]string, map[string][]string) {
	var order []string
	roles := make(map[string][]string)
	for _, r := range records {
		if _, seen := roles[r.Station]; !seen {
			order = append(order, r.Station)
		}
		roles[r.Station] = append(roles[r.Station], r.Position)
	}
	return order, roles
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
