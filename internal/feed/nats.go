package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"booking_map/internal/vatbook"
)

// NATSSource consumes the booking feed from a NATS subject carrying the same
// JSON document a direct HTTP fetch would return. The subscription retains
// the most recent snapshot; Fetch hands out whatever arrived last.
type NATSSource struct {
	conn *nats.Conn
	sub  *nats.Subscription

	mu     sync.RWMutex
	latest []byte
}

// NewNATSSource connects to the NATS server and subscribes to the feed
// subject.
func NewNATSSource(url, subject string) (*NATSSource, error) {
	conn, err := nats.Connect(url,
		nats.Name("booking-map-feed"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	s := &NATSSource{conn: conn}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		s.mu.Lock()
		s.latest = msg.Data
		s.mu.Unlock()
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.sub = sub

	return s, nil
}

// Fetch decodes the most recently received snapshot. It is an error to fetch
// before any snapshot has arrived.
func (s *NATSSource) Fetch(ctx context.Context) ([]vatbook.RawBooking, error) {
	s.mu.RLock()
	data := s.latest
	s.mu.RUnlock()

	if data == nil {
		return nil, fmt.Errorf("no feed snapshot received yet")
	}

	var bookings []vatbook.RawBooking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("decode feed snapshot: %w", err)
	}
	return bookings, nil
}

// Close drains the subscription and closes the connection.
func (s *NATSSource) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	s.conn.Close()
}
