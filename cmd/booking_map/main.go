// Command-line renderer for the ATC booking map.
//
// Loads the reference data, fetches one booking feed snapshot, renders the
// map for a chosen instant and writes it out as a self-contained HTML page.
//
// Usage:
//
//	booking_map -vatspy VATSpy.dat -boundaries Boundaries.geojson -feed-url URL [options]
//
// Options:
//
//	-vatspy PATH        Airport/FIR reference file (env: VATSPY_PATH)
//	-boundaries PATH    FIR boundary GeoJSON file (env: BOUNDARIES_PATH)
//	-feed-url URL       Booking feed URL (env: FEED_URL)
//	-nats-url URL       Consume the feed from NATS instead of HTTP
//	-nats-subject SUBJ  NATS subject carrying the feed (default: bookings.feed)
//	-at RFC3339         Instant to render (default: now)
//	-output PATH        Output HTML file (default: booking_map.html)
//	-bookings-json PATH Also write the filtered booking relation as JSON
//	-archive PATH       SQLite archive to append the fetched snapshot to
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

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
	at := flag.String("at", "", "Instant to render, RFC3339 (default: now)")
	output := flag.String("output", "booking_map.html", "Output HTML file")
	bookingsJSON := flag.String("bookings-json", "", "Also write the filtered bookings as JSON")
	archivePath := flag.String("archive", "", "SQLite archive to append the snapshot to")
	flag.Parse()

	if *vatspyPath == "" || *boundariesPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -vatspy and -boundaries are required")
		flag.Usage()
		os.Exit(2)
	}
	if *feedURL == "" && *natsURL == "" {
		fmt.Fprintln(os.Stderr, "Error: one of -feed-url or -nats-url is required")
		flag.Usage()
		os.Exit(2)
	}

	instant := time.Now().UTC()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -at value: %v\n", err)
			os.Exit(2)
		}
		instant = t.UTC()
	}

	idx, refDiags, err := engine.LoadReference(*vatspyPath, *boundariesPath, refdata.DefaultLayout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading reference data: %v\n", err)
		os.Exit(1)
	}
	for _, d := range refDiags {
		fmt.Fprintf(os.Stderr, "reference: %s\n", d)
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

	eng := engine.New(idx, source)

	ctx := context.Background()
	if err := eng.LoadSnapshot(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching feed: %v\n", err)
		os.Exit(1)
	}

	res, err := eng.Render(instant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s\n", d)
	}

	if *archivePath != "" {
		if err := archiveSnapshot(*archivePath, eng, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error archiving snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
		os.Exit(1)
	}
	if err := res.Map.WriteHTML(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing map: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing map: %v\n", err)
		os.Exit(1)
	}

	if *bookingsJSON != "" {
		data, err := json.MarshalIndent(res.Bookings, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding bookings: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*bookingsJSON, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing bookings: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Rendered %d active bookings (%d primitives, %d diagnostics) at %s -> %s\n",
		len(res.Bookings), len(res.Map.Primitives), len(res.Diagnostics),
		instant.Format(time.RFC3339), *output)
}

func archiveSnapshot(path string, eng *engine.Engine, res *engine.Result) error {
	archive, err := storage.OpenArchive(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	_, err = archive.StoreSnapshot(time.Now().UTC(), eng.Snapshot(), res.Diagnostics)
	return err
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
