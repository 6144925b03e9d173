package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection used as an append-only log of
// resolution outcomes, for analyzing resolution gaps over time.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS station_resolutions (
		rendered_at     DateTime64(3),
		instant         DateTime64(3),
		station         LowCardinality(String),
		kind            LowCardinality(String),
		boundary_id     LowCardinality(String),
		matched_by      String,
		marker          UInt8,
		circle          UInt8,
		created_at      DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(rendered_at)
	ORDER BY (kind, station, rendered_at)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create station_resolutions: %w", err)
	}
	return nil
}

// ResolutionRow is one logged resolution outcome. A station resolved to both
// an airport and a FIR produces one row per emitted layer.
type ResolutionRow struct {
	Instant    time.Time
	Station    string
	Kind       string
	BoundaryID string
	MatchedBy  string
	Marker     bool
	Circle     bool
}

// LogResolutions appends the outcomes of one render pass.
func (d *ClickHouseDB) LogResolutions(ctx context.Context, renderedAt time.Time, rows []ResolutionRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx,
		`INSERT INTO station_resolutions
		 (rendered_at, instant, station, kind, boundary_id, matched_by, marker, circle)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(
			renderedAt, r.Instant, r.Station, r.Kind, r.BoundaryID, r.MatchedBy,
			boolToUInt8(r.Marker), boolToUInt8(r.Circle),
		); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
