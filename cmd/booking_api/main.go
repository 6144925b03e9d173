// Long-running API server for the ATC booking map.
//
// Keeps a feed snapshot refreshed in the background and serves renders over
// HTTP. Optionally mirrors the normalized booking relation into PostgreSQL
// and appends resolution outcomes to ClickHouse for gap analysis.
//
// Usage:
//
//	booking_api -vatspy VATSpy.dat -boundaries Boundaries.geojson -feed-url URL [options]
//
// Options:
//
//	-vatspy PATH        Airport/FIR reference file (env: VATSPY_PATH)
//	-boundaries PATH    FIR boundary GeoJSON file (env: BOUNDARIES_PATH)
//	-feed-url URL       Booking feed URL (env: FEED_URL)
//	-nats-url URL       Consume the feed from NATS instead of HTTP
//	-nats-subject SUBJ  NATS subject carrying the feed (default: bookings.feed)
//	-refresh DUR        Feed refresh interval (default: 5m)
//	-port N             HTTP port (default: 8081)
//	-auth               Enable API key authentication
//	-api-keys KEYS      Comma-separated list of valid API keys
//	-store              Mirror bookings to PostgreSQL and log resolutions to ClickHouse
//	-pg-host / -pg-port / -pg-database / -pg-user / -pg-password
//	-ch-host / -ch-port / -ch-database / -ch-user / -ch-password
//
// API Endpoints:
//
//	GET /api/v1/health
//	GET /api/v1/map?at=RFC3339
//	GET /api/v1/bookings?at=RFC3339
//	GET /api/v1/diagnostics?at=RFC3339
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"booking_map/internal/api"
	"booking_map/internal/engine"
	"booking_map/internal/feed"
	"booking_map/internal/refdata"
	"booking_map/internal/storage"
)

func main() {
	vatspyPath := flag.String("vatspy", envOrDefault("VATSPY_PATH", ""), "Airport/FIR reference file")
	boundariesPath := flag.String("boundaries", envOrDefault("BOUNDARIES_PATH", ""), "FIR boundary GeoJSON file")
	feedURL := flag.String("feed-url", envOrDefault("FEED_URL", ""), "Booking feed URL")
	natsURL := flag.String("nats-url", envOrDefault("NATS_URL", ""), "NATS server URL (overrides -feed-url)")
	natsSubject := flag.String("nats-subject", envOrDefault("NATS_SUBJECT", "bookings.feed"), "NATS subject carrying the feed")
	refresh := flag.Duration("refresh", 5*time.Minute, "Feed refresh interval")

	port := flag.Int("port", 8081, "HTTP port for API server")
	authEnabled := flag.Bool("auth", false, "Enable API key authentication")
	apiKeys := flag.String("api-keys", "", "Comma-separated list of valid API keys (when auth enabled)")

	store := flag.Bool("store", false, "Mirror bookings to PostgreSQL and log resolutions to ClickHouse")
	pgHost := flag.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := flag.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgUser := flag.String("pg-user", envOrDefault("POSTGRES_USER", "bookings"), "PostgreSQL user")
	pgPassword := flag.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "bookings"), "PostgreSQL password")
	pgDB := flag.String("pg-database", envOrDefault("POSTGRES_DATABASE", "bookings"), "PostgreSQL database")
	chHost := flag.String("ch-host", envOrDefault("CLICKHOUSE_HOST", "localhost"), "ClickHouse host")
	chPort := flag.Int("ch-port", envOrDefaultInt("CLICKHOUSE_PORT", 9000), "ClickHouse port")
	chUser := flag.String("ch-user", envOrDefault("CLICKHOUSE_USER", "default"), "ClickHouse user")
	chPassword := flag.String("ch-password", envOrDefault("CLICKHOUSE_PASSWORD", ""), "ClickHouse password")
	chDB := flag.String("ch-database", envOrDefault("CLICKHOUSE_DATABASE", "bookings"), "ClickHouse database")
	flag.Parse()

	if *vatspyPath == "" || *boundariesPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -vatspy and -boundaries are required")
		os.Exit(2)
	}
	if *feedURL == "" && *natsURL == "" {
		fmt.Fprintln(os.Stderr, "Error: one of -feed-url or -nats-url is required")
		os.Exit(2)
	}

	ctx := context.Background()

	idx, refDiags, err := engine.LoadReference(*vatspyPath, *boundariesPath, refdata.DefaultLayout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading reference data: %v\n", err)
		os.Exit(1)
	}
	for _, d := range refDiags {
		log.Printf("reference: %s", d)
	}

	var source feed.Source
	if *natsURL != "" {
		ns, err := feed.NewNATSSource(*natsURL, *natsSubject)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to NATS: %v\n", err)
			os.Exit(1)
		}
		defer ns.Close()
		source = ns
	} else {
		source = feed.NewHTTPSource(*feedURL)
	}

	var db *storage.DB
	if *store {
		db, err = storage.Open(ctx, storage.Config{
			Postgres: storage.PostgresConfig{
				Host: *pgHost, Port: *pgPort, Database: *pgDB,
				User: *pgUser, Password: *pgPassword,
			},
			ClickHouse: storage.ClickHouseConfig{
				Host: *chHost, Port: *chPort, Database: *chDB,
				User: *chUser, Password: *chPassword,
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening databases: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating schema: %v\n", err)
			os.Exit(1)
		}
	}

	eng := engine.New(idx, source)

	// First snapshot. A NATS source may not have received anything yet; the
	// refresh loop keeps retrying.
	if err := eng.LoadSnapshot(ctx); err != nil {
		log.Printf("initial feed fetch failed: %v", err)
	} else {
		persist(ctx, eng, db)
	}

	go refreshLoop(ctx, eng, db, *refresh)

	server := api.NewServer(eng, api.Config{
		Port:        *port,
		AuthEnabled: *authEnabled,
		APIKeys:     splitKeys(*apiKeys),
	})

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// refreshLoop refetches the feed on the configured interval and persists the
// result. A failed refresh keeps the previous snapshot serving.
func refreshLoop(ctx context.Context, eng *engine.Engine, db *storage.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := eng.LoadSnapshot(ctx); err != nil {
			log.Printf("feed refresh failed: %v", err)
			continue
		}
		persist(ctx, eng, db)
	}
}

// persist mirrors the fresh snapshot to PostgreSQL and logs a current-instant
// render to ClickHouse. No-op without -store.
func persist(ctx context.Context, eng *engine.Engine, db *storage.DB) {
	if db == nil {
		return
	}

	if err := db.PG.ReplaceBookings(ctx, eng.Snapshot()); err != nil {
		log.Printf("postgres mirror failed: %v", err)
	}

	now := time.Now().UTC()
	res, err := eng.Render(now)
	if err != nil {
		log.Printf("render for resolution log failed: %v", err)
		return
	}
	rows := storage.ResolutionRows(now, res.Resolved)
	if err := db.CH.LogResolutions(ctx, now, rows); err != nil {
		log.Printf("clickhouse log failed: %v", err)
	}
}

func splitKeys(s string) []string {
	if s == "" {
		return nil
	}
	keys := strings.Split(s, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
