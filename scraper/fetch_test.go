package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"rental-scanner/config"
)

func fetcherConfig() config.SourceConfig {
	return config.SourceConfig{TimeoutSec: 5, MaxRetries: 3, DelayMs: 1}
}

func TestHTTPFetcherSuccess(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("<html>listings</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fetcherConfig(), testLogger())
	payload, err := f.Fetch(context.Background(), QueryTarget{
		URL:    srv.URL,
		Header: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(payload) != "<html>listings</html>" {
		t.Errorf("payload = %q", payload)
	}
	if gotUA == "" {
		t.Error("User-Agent header not set")
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, target header not applied", gotAccept)
	}
}

func TestHTTPFetcherTerminalStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fetcherConfig(), testLogger())
	_, err := f.Fetch(context.Background(), QueryTarget{URL: srv.URL})
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("404 retried %d times, want a single terminal attempt", n)
	}
}

func TestHTTPFetcherRetriesTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fetcherConfig(), testLogger())
	payload, err := f.Fetch(context.Background(), QueryTarget{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(payload) != "recovered" {
		t.Errorf("payload = %q", payload)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server saw %d calls, want 2", n)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &httpStatusError{status: 429}, true},
		{"server error", &httpStatusError{status: 503}, true},
		{"not found", &httpStatusError{status: 404}, false},
		{"forbidden", &httpStatusError{status: 403}, false},
		{"transport error", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %t, want %t", tt.err, got, tt.want)
			}
		})
	}
}
