// Package feed retrieves booking feed snapshots. A snapshot is a JSON array
// of booking objects; transport or decode failures are fatal to the caller's
// render, no partial data is returned.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"booking_map/internal/vatbook"
)

// Source produces the current booking feed snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]vatbook.RawBooking, error)
}

// HTTPSource fetches the feed document over HTTP.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for the given feed URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves and decodes the feed document.
func (s *HTTPSource) Fetch(ctx context.Context) ([]vatbook.RawBooking, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	return Decode(resp.Body)
}

// Decode parses a feed document from a reader.
func Decode(r io.Reader) ([]vatbook.RawBooking, error) {
	var bookings []vatbook.RawBooking
	if err := json.NewDecoder(r).Decode(&bookings); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return bookings, nil
}
