package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func TestReverse(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q, want /reverse", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("zoom") != "10" || q.Get("addressdetails") != "1" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Write([]byte(`{"address":{"city":"Oslo","country":"Norway"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "fotolinje-test/1.0", nil)
	place, err := c.Reverse(context.Background(), 59.91, 10.75)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if place != "Oslo, Norway" {
		t.Errorf("place = %q", place)
	}
	if gotUA != "fotolinje-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestPlaceNameProbing(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"city wins", `{"address":{"city":"Bergen","county":"Vestland","country":"Norway"}}`, "Bergen, Norway"},
		{"village fallback", `{"address":{"village":"Flåm","country":"Norway"}}`, "Flåm, Norway"},
		{"state fallback", `{"address":{"state":"Bavaria","country":"Germany"}}`, "Bavaria, Germany"},
		{"country only", `{"address":{"country":"Iceland"}}`, "Iceland"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "test", nil)
			place, err := c.Reverse(context.Background(), 1, 2)
			if err != nil {
				t.Fatalf("Reverse: %v", err)
			}
			if place != tc.want {
				t.Errorf("place = %q, want %q", place, tc.want)
			}
		})
	}
}

func TestLocateFallsBackToCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "test", nil)
	got := c.Locate(context.Background(), -33.87, 151.21)
	if got != "33.87°S, 151.21°E" {
		t.Errorf("fallback = %q", got)
	}
}

func TestFormatCoords(t *testing.T) {
	if got := FormatCoords(59.91, 10.75); got != "59.91°N, 10.75°E" {
		t.Errorf("got %q", got)
	}
	if got := FormatCoords(-12.5, -77.03); got != "12.50°S, 77.03°W" {
		t.Errorf("got %q", got)
	}
}

func TestCacheAvoidsRepeatLookups(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"address":{"city":"Oslo","country":"Norway"}}`))
	}))
	defer srv.Close()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "geo.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	c := New(srv.URL, "test", cache)
	for i := 0; i < 3; i++ {
		place, err := c.Reverse(context.Background(), 59.91, 10.75)
		if err != nil {
			t.Fatalf("Reverse #%d: %v", i, err)
		}
		if place != "Oslo, Norway" {
			t.Errorf("place = %q", place)
		}
	}

	if requests != 1 {
		t.Errorf("made %d upstream requests, want 1", requests)
	}
}

func TestCachePutGet(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "geo.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	if _, ok, err := cache.Get("1.0000,2.0000"); err != nil || ok {
		t.Fatalf("empty cache Get = %v, %v", ok, err)
	}

	if err := cache.Put("1.0000,2.0000", "Somewhere"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put("1.0000,2.0000", "Somewhere Else"); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}

	place, ok, err := cache.Get("1.0000,2.0000")
	if err != nil || !ok {
		t.Fatalf("Get: %v, %v", ok, err)
	}
	if place != "Somewhere Else" {
		t.Errorf("place = %q, want upserted value", place)
	}
}
