package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testFeedDoc = `[
	{"id": 1, "position": "EGLL_TWR", "start": 1773482400, "end": 1773489600},
	{"id": "2", "position": "EDWW_H_CTR", "start": "1773482400", "end": "1773493200"}
]`

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(testFeedDoc))
	}))
	defer srv.Close()

	bookings, err := NewHTTPSource(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("got %d bookings, want 2", len(bookings))
	}
	if bookings[0].Position != "EGLL_TWR" {
		t.Errorf("position = %q", bookings[0].Position)
	}

	// String and numeric epochs decode to the same instant.
	if bookings[0].Start != bookings[1].Start {
		t.Errorf("epoch decode mismatch: %d vs %d", bookings[0].Start, bookings[1].Start)
	}
}

func TestHTTPSource_Fetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestHTTPSource_Fetch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
