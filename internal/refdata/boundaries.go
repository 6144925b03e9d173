package refdata

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FirBoundary is the closed-area geometry of one FIR, keyed by boundary id.
// Geometry is immutable after load; per-render draw bookkeeping lives with the
// render pass, never here.
type FirBoundary struct {
	ID       string
	Geometry orb.Geometry
}

// LoadBoundaries parses a GeoJSON FeatureCollection with one polygon feature
// per FIR, keyed by the "id" property. Duplicate ids keep the first
// occurrence. Features without an id or without area geometry are dropped.
func LoadBoundaries(r io.Reader) ([]FirBoundary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundaries: %w", err)
	}

	seen := make(map[string]bool, len(fc.Features))
	boundaries := make([]FirBoundary, 0, len(fc.Features))

	for _, f := range fc.Features {
		id := featureID(f)
		if id == "" || seen[id] {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		seen[id] = true
		boundaries = append(boundaries, FirBoundary{ID: id, Geometry: f.Geometry})
	}

	if len(boundaries) == 0 {
		return nil, fmt.Errorf("boundary file contains no identified polygon features")
	}

	return boundaries, nil
}

func featureID(f *geojson.Feature) string {
	if id := f.Properties.MustString("id", ""); id != "" {
		return id
	}
	if s, ok := f.ID.(string); ok {
		return s
	}
	return ""
}
