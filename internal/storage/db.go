package storage

import (
	"context"
	"fmt"
	"time"

	"booking_map/internal/resolver"
)

// Config holds database connection settings for both ClickHouse and PostgreSQL.
type Config struct {
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig
}

// DefaultConfig returns a configuration with default local development settings.
func DefaultConfig() Config {
	return Config{
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "bookings",
			User:     "default",
			Password: "",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "bookings",
			User:     "bookings",
			Password: "bookings",
		},
	}
}

// DB wraps both ClickHouse and PostgreSQL connections.
type DB struct {
	CH *ClickHouseDB // ClickHouse for the resolution analytics log.
	PG *PostgresDB   // PostgreSQL for the current booking relation.
}

// Open opens connections to both ClickHouse and PostgreSQL.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}

	pg, err := OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &DB{CH: ch, PG: pg}, nil
}

// CreateSchema creates the tables in both databases.
func (d *DB) CreateSchema(ctx context.Context) error {
	if err := d.CH.CreateSchema(ctx); err != nil {
		return err
	}
	return d.PG.CreateSchema(ctx)
}

// Close closes both connections.
func (d *DB) Close() {
	_ = d.CH.Close()
	d.PG.Close()
}

// ResolutionRows flattens resolved stations into log rows for one render.
func ResolutionRows(instant time.Time, resolved []resolver.ResolvedStation) []ResolutionRow {
	var rows []ResolutionRow
	for _, rs := range resolved {
		if len(rs.Polygons) == 0 {
			rows = append(rows, ResolutionRow{
				Instant:   instant,
				Station:   rs.Station,
				Kind:      string(rs.Kind),
				MatchedBy: rs.Station,
				Marker:    rs.Marker != nil,
				Circle:    rs.Circle != nil,
			})
			continue
		}
		for _, p := range rs.Polygons {
			rows = append(rows, ResolutionRow{
				Instant:    instant,
				Station:    rs.Station,
				Kind:       string(rs.Kind),
				BoundaryID: p.BoundaryID,
				MatchedBy:  p.Tooltip,
				Marker:     rs.Marker != nil,
				Circle:     rs.Circle != nil,
			})
		}
	}
	return rows
}
