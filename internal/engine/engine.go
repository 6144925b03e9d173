// Package engine wires the pipeline together: reference data, feed snapshot,
// time-window filtering, station resolution and map assembly. Render is the
// single entry point exposed to callers.
package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"booking_map/internal/feed"
	"booking_map/internal/maprender"
	"booking_map/internal/refdata"
	"booking_map/internal/resolver"
	"booking_map/internal/vatbook"
)

// Engine holds the immutable reference index and the current feed snapshot.
// Reference data is shared read-only across renders; everything render-scoped
// lives in the resolver pass, so concurrent Render calls are safe.
type Engine struct {
	idx    *refdata.Index
	source feed.Source

	mu        sync.RWMutex
	snapshot  []vatbook.BookingRecord
	feedDiags []vatbook.Diagnostic
	loaded    bool
}

// Result is the output of one render pass.
type Result struct {
	Instant     time.Time
	Map         *maprender.Map
	Bookings    []vatbook.BookingRecord // the filtered relation, for tabular display
	Resolved    []resolver.ResolvedStation
	Diagnostics []vatbook.Diagnostic
}

// New creates an engine over a reference index and a feed source.
func New(idx *refdata.Index, source feed.Source) *Engine {
	return &Engine{idx: idx, source: source}
}

// LoadReference loads and indexes the two reference files. Loader diagnostics
// cover skipped malformed rows; format drift in either file is an error.
func LoadReference(vatspyPath, boundariesPath string, layout refdata.FileLayout) (*refdata.Index, []vatbook.Diagnostic, error) {
	var diags []vatbook.Diagnostic

	f, err := os.Open(vatspyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open reference file: %w", err)
	}
	airports, d, err := refdata.LoadAirports(f, layout)
	f.Close()
	if err != nil {
		return nil, nil, err
	}
	diags = append(diags, d...)

	// The FIR table lives in the same file, further down.
	f, err = os.Open(vatspyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open reference file: %w", err)
	}
	firs, d, err := refdata.LoadFIRCallsigns(f, layout)
	f.Close()
	if err != nil {
		return nil, nil, err
	}
	diags = append(diags, d...)

	b, err := os.Open(boundariesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open boundary file: %w", err)
	}
	boundaries, err := refdata.LoadBoundaries(b)
	b.Close()
	if err != nil {
		return nil, nil, err
	}

	return refdata.NewIndex(airports, firs, boundaries), diags, nil
}

// LoadSnapshot fetches the feed and normalizes it into the engine's current
// snapshot. A fetch or decode failure leaves the previous snapshot in place.
func (e *Engine) LoadSnapshot(ctx context.Context) error {
	raw, err := e.source.Fetch(ctx)
	if err != nil {
		return err
	}

	records, diags := vatbook.Normalize(raw)

	e.mu.Lock()
	e.snapshot = records
	e.feedDiags = diags
	e.loaded = true
	e.mu.Unlock()

	return nil
}

// Snapshot returns the normalized booking relation currently held.
func (e *Engine) Snapshot() []vatbook.BookingRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Render produces the map for the given instant. Deterministic for a fixed
// snapshot and instant; an instant with no active bookings yields an empty
// map, not an error.
func (e *Engine) Render(instant time.Time) (*Result, error) {
	e.mu.RLock()
	snapshot, feedDiags, loaded := e.snapshot, e.feedDiags, e.loaded
	e.mu.RUnlock()

	if !loaded {
		return nil, fmt.Errorf("no feed snapshot loaded")
	}

	window := vatbook.ActiveAt(snapshot, instant)

	pass := resolver.NewPass(e.idx)
	resolved := pass.ResolveAll(window)

	diags := make([]vatbook.Diagnostic, 0, len(feedDiags)+len(pass.Diagnostics()))
	diags = append(diags, feedDiags...)
	diags = append(diags, pass.Diagnostics()...)

	return &Result{
		Instant:     instant.UTC(),
		Map:         maprender.Assemble(resolved, window),
		Bookings:    window,
		Resolved:    resolved,
		Diagnostics: diags,
	}, nil
}
