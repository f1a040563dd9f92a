package distance

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHaversineKnownDistance(t *testing.T) {
	// London to Paris is approximately 344 km.
	london := Coordinate{Lat: 51.5074, Lng: -0.1278}
	paris := Coordinate{Lat: 48.8566, Lng: 2.3522}
	got := haversineKM(london, paris)
	if math.Abs(got-344) > 10 {
		t.Errorf("haversineKM(London, Paris) = %v, want ~344", got)
	}
}

func TestHaversineZeroForSamePoint(t *testing.T) {
	p := Coordinate{Lat: 10, Lng: 20}
	if got := haversineKM(p, p); got > 1e-9 {
		t.Errorf("haversineKM(p, p) = %v, want 0", got)
	}
}

func TestDistanceFallsBackWithoutBaseURL(t *testing.T) {
	p := NewProvider("")
	defer p.Close()

	o := Coordinate{Lat: 0, Lng: 0}
	d := Coordinate{Lat: 1, Lng: 1}
	res, err := p.Distance(context.Background(), o, d)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if res.Source != "fallback" {
		t.Errorf("Source = %q, want fallback", res.Source)
	}
	if res.KM <= 0 {
		t.Errorf("KM = %v, want > 0", res.KM)
	}
}

func TestDistanceUsesExternalEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]routeLeg{{KM: 42, Min: 55}})
	}))
	defer srv.Close()

	p := NewProvider(srv.URL)
	defer p.Close()

	res, err := p.Distance(context.Background(), Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 1, Lng: 1})
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if res.Source != "external" {
		t.Errorf("Source = %q, want external", res.Source)
	}
	if res.KM != 42 || res.Minutes != 55 {
		t.Errorf("got (%v,%v), want (42,55)", res.KM, res.Minutes)
	}
}

func TestDistanceFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, WithTimeout(time.Second))
	defer p.Close()

	res, err := p.Distance(context.Background(), Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 1, Lng: 1})
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if res.Source != "fallback" {
		t.Errorf("Source = %q, want fallback on server error", res.Source)
	}
}

func TestBatchPreservesOrder(t *testing.T) {
	p := NewProvider("")
	defer p.Close()

	pairs := [][2]Coordinate{
		{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}},
		{{Lat: 10, Lng: 10}, {Lat: 11, Lng: 11}},
		{{Lat: 20, Lng: 20}, {Lat: 21, Lng: 21}},
	}
	results, err := p.Batch(context.Background(), pairs)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(results) != len(pairs) {
		t.Fatalf("got %d results, want %d", len(results), len(pairs))
	}
	for i, r := range results {
		want := haversineKM(pairs[i][0], pairs[i][1])
		if math.Abs(r.KM-want) > 1e-9 {
			t.Errorf("result %d: KM = %v, want %v", i, r.KM, want)
		}
	}
}

func TestBatchCachesRepeatedPair(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]routeLeg{{KM: 10, Min: 20}})
	}))
	defer srv.Close()

	p := NewProvider(srv.URL)
	defer p.Close()

	pair := [2]Coordinate{{Lat: 5, Lng: 5}, {Lat: 6, Lng: 6}}
	if _, err := p.Batch(context.Background(), [][2]Coordinate{pair}); err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if _, err := p.Batch(context.Background(), [][2]Coordinate{pair}); err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if calls != 1 {
		t.Errorf("external endpoint called %d times, want 1 (second call should hit cache)", calls)
	}
}
