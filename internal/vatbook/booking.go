// Package vatbook provides booking feed types and normalization for
// time-boxed ATC position reservations.
package vatbook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexEpoch handles JSON epoch-second fields that can be either string or number.
type FlexEpoch int64

func (f *FlexEpoch) UnmarshalJSON(data []byte) error {
	// Try as number first
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		*f = FlexEpoch(i)
		return nil
	}

	// Try as string
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			*f = 0
			return nil // Silently ignore unparseable timestamps
		}
		*f = FlexEpoch(i)
		return nil
	}

	*f = 0
	return nil
}

// Time returns the epoch value as a UTC instant.
func (f FlexEpoch) Time() time.Time {
	return time.Unix(int64(f), 0).UTC()
}

// RawBooking is one entry of the booking feed document. Fields beyond
// position/start/end are carried by the feed but dropped during
// normalization.
type RawBooking struct {
	ID       FlexEpoch `json:"id,omitempty"`
	Position string    `json:"position"`
	Start    FlexEpoch `json:"start"`
	End      FlexEpoch `json:"end"`
	VatsimID string    `json:"vatsimid,omitempty"`
	Name     string    `json:"name,omitempty"`
	Added    FlexEpoch `json:"added,omitempty"`
}

// Clock is a wall-clock time of day, in seconds since UTC midnight.
type Clock int

// ClockOf extracts the time of day of a UTC instant.
func ClockOf(t time.Time) Clock {
	t = t.UTC()
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (c Clock) String() string {
	s := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// BookingRecord is a normalized booking row. Immutable once produced.
type BookingRecord struct {
	Station  string    `json:"station"`  // ICAO-like root of the position token
	Position string    `json:"position"` // controller role suffix, e.g. TWR, H_CTR
	Date     time.Time `json:"date"`     // UTC midnight of the booking's start day
	Start    Clock     `json:"start"`
	End      Clock     `json:"end"`

	// Original instants, retained for archival and display.
	StartUTC time.Time `json:"start_utc"`
	EndUTC   time.Time `json:"end_utc"`
}

// Diagnostic records a recoverable condition absorbed during normalization or
// resolution. Diagnostics accompany a successful result; they never abort it.
type Diagnostic struct {
	Stage   string `json:"stage"`   // "normalize" or "resolve"
	Subject string `json:"subject"` // the offending token or row
	Detail  string `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Stage, d.Subject, d.Detail)
}
