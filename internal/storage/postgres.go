package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"booking_map/internal/vatbook"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool holding the current booking
// relation for external consumers.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS bookings (
		station     TEXT NOT NULL,
		position    TEXT NOT NULL,
		date        DATE NOT NULL,
		start_utc   TIMESTAMPTZ NOT NULL,
		end_utc     TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (station, position, start_utc)
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_window ON bookings(date, start_utc, end_utc);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ReplaceBookings swaps the stored relation for the given snapshot. The feed
// is a full document, so refresh is replace, not merge.
func (d *PostgresDB) ReplaceBookings(ctx context.Context, records []vatbook.BookingRecord) error {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM bookings`); err != nil {
		return fmt.Errorf("clear bookings: %w", err)
	}

	for _, r := range records {
		if _, err := tx.Exec(ctx,
			`INSERT INTO bookings (station, position, date, start_utc, end_utc)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (station, position, start_utc) DO UPDATE
			 SET end_utc = EXCLUDED.end_utc, updated_at = NOW()`,
			r.Station, r.Position, r.Date, r.StartUTC, r.EndUTC,
		); err != nil {
			return fmt.Errorf("insert booking %s_%s: %w", r.Station, r.Position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ActiveBookings returns the stored rows active at the given instant, ordered
// by station. Mirrors the in-memory window filter for consumers that only see
// the database.
func (d *PostgresDB) ActiveBookings(ctx context.Context, instant time.Time) ([]vatbook.BookingRecord, error) {
	instant = instant.UTC()
	day := time.Date(instant.Year(), instant.Month(), instant.Day(), 0, 0, 0, 0, time.UTC)

	rows, err := d.pool.Query(ctx,
		`SELECT station, position, start_utc, end_utc
		 FROM bookings
		 WHERE date = $1
		   AND (start_utc::time) <= ($2::timestamptz)::time
		   AND ($2::timestamptz)::time < (end_utc::time)
		 ORDER BY station`,
		day, instant,
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
			Date:     day,
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
