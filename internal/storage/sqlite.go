// Package storage provides optional persistence around the render pipeline:
// a SQLite snapshot archive, a PostgreSQL booking store and a ClickHouse
// resolution log. The core engine never requires any of them.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"booking_map/internal/vatbook"
)

// Archive is an embedded SQLite store of fetched feed snapshots, their
// normalized booking rows and the normalization diagnostics.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates a snapshot archive at the given path.
// An empty path or ":memory:" uses an in-memory database.
func OpenArchive(path string) (*Archive, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	fetched_at  TIMESTAMP NOT NULL,
	rows        INTEGER NOT NULL,
	rejected    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	station     TEXT NOT NULL,
	position    TEXT NOT NULL,
	date        TEXT NOT NULL,
	start_utc   TIMESTAMP NOT NULL,
	end_utc     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_snapshot ON bookings(snapshot_id, station);

CREATE TABLE IF NOT EXISTS diagnostics (
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	stage       TEXT NOT NULL,
	subject     TEXT NOT NULL,
	detail      TEXT NOT NULL
);
`

// Close closes the archive.
func (a *Archive) Close() error {
	return a.db.Close()
}

// StoreSnapshot persists one normalized feed snapshot and returns its id.
func (a *Archive) StoreSnapshot(fetchedAt time.Time, records []vatbook.BookingRecord, diags []vatbook.Diagnostic) (int64, error) {
	tx, err := a.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO snapshots (fetched_at, rows, rejected) VALUES (?, ?, ?)`,
		fetchedAt.UTC(), len(records), len(diags),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	for _, r := range records {
		if _, err := tx.Exec(
			`INSERT INTO bookings (snapshot_id, station, position, date, start_utc, end_utc)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, r.Station, r.Position, r.Date.Format("2006-01-02"), r.StartUTC, r.EndUTC,
		); err != nil {
			return 0, fmt.Errorf("insert booking: %w", err)
		}
	}

	for _, d := range diags {
		if _, err := tx.Exec(
			`INSERT INTO diagnostics (snapshot_id, stage, subject, detail) VALUES (?, ?, ?, ?)`,
			id, d.Stage, d.Subject, d.Detail,
		); err != nil {
			return 0, fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LoadSnapshot reads back the booking rows of an archived snapshot, ready to
// be filtered and rendered like a live one.
func (a *Archive) LoadSnapshot(id int64) ([]vatbook.BookingRecord, error) {
	rows, err := a.db.Query(
		`SELECT station, position, start_utc, end_utc FROM bookings WHERE snapshot_id = ? ORDER BY rowid`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var records []vatbook.BookingRecord
	for rows.Next() {
		var station, position string
		var start, end time.Time
		if err := rows.Scan(&station, &position, &start, &end); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		start, end = start.UTC(), end.UTC()
		records = append(records, vatbook.BookingRecord{
			Station:  station,
			Position: position,
			Date:     time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
			Start:    vatbook.ClockOf(start),
			End:      vatbook.ClockOf(end),
			StartUTC: start,
			EndUTC:   end,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read bookings: %w", err)
	}
	return records, nil
}

// LatestSnapshotID returns the id of the most recently stored snapshot, or 0
// when the archive is empty.
func (a *Archive) LatestSnapshotID() (int64, error) {
	var id sql.NullInt64
	if err := a.db.QueryRow(`SELECT MAX(id) FROM snapshots`).Scan(&id); err != nil {
		return 0, fmt.Errorf("query latest snapshot: %w", err)
	}
	return id.Int64, nil
}
