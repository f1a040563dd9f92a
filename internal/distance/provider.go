// Package distance computes or retrieves (origin, destination) -> (km,
// minutes) pairs, caching results and falling back from an external
// OSRM-style routing endpoint to great-circle distance when the endpoint
// is slow, erroring, or unconfigured.
package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/cdstlab/optimizer/internal/metrics"
	"github.com/cdstlab/optimizer/internal/problem"
)

const (
	defaultTimeout           = 30 * time.Second
	defaultCacheTTL          = 24 * time.Hour
	defaultMaxConcurrent     = 8
	defaultFallbackSpeedKMH  = 40.0
	defaultCleanupInterval   = 6 * time.Hour
)

// Result is one (origin, destination) routing answer. It is an alias of
// problem.DistanceResult so that Provider satisfies problem.DistanceLookup
// without an adapter layer.
type Result = problem.DistanceResult

// Option configures a Provider. The builder-pattern options style mirrors
// the Hola logistics solver's SolverOptions.With* methods, adapted from a
// struct-of-setters into functional options since Provider construction
// happens once at process start rather than per-call.
type Option func(*Provider)

// WithTimeout overrides the per-request external routing deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithCacheTTL overrides the cache entry lifetime.
func WithCacheTTL(d time.Duration) Option {
	return func(p *Provider) { p.cache = newCache(d) }
}

// WithMaxConcurrent overrides the outstanding external request cap for
// batch calls.
func WithMaxConcurrent(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.sem = make(chan struct{}, n)
		}
	}
}

// WithFallbackSpeed overrides the assumed average speed used to synthesize
// travel time from the haversine fallback distance.
func WithFallbackSpeed(kmh float64) Option {
	return func(p *Provider) { p.fallbackSpeedKMH = kmh }
}

// WithHTTPClient overrides the HTTP client used to call the routing
// endpoint (primarily for tests).
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider is the distance/time source for the Solver. It is process-wide,
// shared read-only state, the only such state in the system's concurrency
// model.
type Provider struct {
	baseURL          string
	httpClient       *http.Client
	timeout          time.Duration
	cache            *cache
	sem              chan struct{}
	fallbackSpeedKMH float64

	stopSweep context.CancelFunc
	sweepOnce sync.Once
}

// NewProvider constructs a Provider against the given OSRM-style routing
// base URL (empty baseURL means always fall back to haversine, useful for
// tests and offline operation) and starts its background cache sweeper.
func NewProvider(baseURL string, opts ...Option) *Provider {
	p := &Provider{
		baseURL:          baseURL,
		httpClient:       &http.Client{Timeout: defaultTimeout},
		timeout:          defaultTimeout,
		cache:            newCache(defaultCacheTTL),
		sem:              make(chan struct{}, defaultMaxConcurrent),
		fallbackSpeedKMH: defaultFallbackSpeedKMH,
	}
	for _, opt := range opts {
		opt(p)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.stopSweep = cancel
	go p.sweepLoop(ctx)
	return p
}

// Close signals the background cache sweeper to stop and returns at once;
// it does not wait for a sweep or a cache write already in progress.
func (p *Provider) Close() {
	p.sweepOnce.Do(func() {
		p.stopSweep()
	})
}

func (p *Provider) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.cache.sweep(); n > 0 {
				klog.V(2).Infof("distance cache sweep removed %d expired entries", n)
			}
		}
	}
}

// Distance computes or retrieves (o, d) -> (km, minutes, source).
func (p *Provider) Distance(ctx context.Context, o, d Coordinate) (Result, error) {
	results, err := p.Batch(ctx, [][2]Coordinate{{o, d}})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// Batch computes or retrieves distances for every pair, parallelizing
// external calls up to the configured concurrency cap. Cache hits never
// touch the semaphore. Order of results matches order of pairs.
func (p *Provider) Batch(ctx context.Context, pairs [][2]Coordinate) ([]Result, error) {
	results := make([]Result, len(pairs))
	var wg sync.WaitGroup

	for i, pair := range pairs {
		key := cacheKey(pair[0], pair[1])
		if e, ok := p.cache.get(key); ok {
			metrics.DistanceCacheHits.Inc()
			results[i] = Result{KM: e.km, Minutes: e.minutes, Source: e.source}
			continue
		}
		metrics.DistanceCacheMisses.Inc()

		wg.Add(1)
		go func(i int, o, d Coordinate, key string) {
			defer wg.Done()

			select {
			case p.sem <- struct{}{}:
				defer func() { <-p.sem }()
			case <-ctx.Done():
				results[i] = p.fallback(o, d)
				return
			}

			r := p.resolve(ctx, o, d)
			p.cache.put(key, r.KM, r.Minutes, r.Source)
			results[i] = r
		}(i, pair[0], pair[1], key)
	}

	wg.Wait()
	return results, nil
}

// resolve tries the external routing endpoint and falls back to haversine
// on any failure (timeout, HTTP error, malformed response, or unconfigured
// base URL).
func (p *Provider) resolve(ctx context.Context, o, d Coordinate) Result {
	if p.baseURL == "" {
		return p.fallback(o, d)
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	km, minutes, err := p.callExternal(reqCtx, o, d)
	metrics.DistanceExternalLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		klog.Warningf("distance: external routing unavailable, falling back to haversine: %v", err)
		return p.fallback(o, d)
	}
	return Result{KM: km, Minutes: minutes, Source: "external"}
}

func (p *Provider) fallback(o, d Coordinate) Result {
	km := haversineKM(o, d)
	return Result{KM: km, Minutes: minutesAt(km, p.fallbackSpeedKMH), Source: "fallback"}
}

type routeLeg struct {
	KM  float64 `json:"km"`
	Min float64 `json:"min"`
}

// callExternal performs GET /route?pairs=lat,lng;lat,lng against the
// configured OSRM-style endpoint.
func (p *Provider) callExternal(ctx context.Context, o, d Coordinate) (float64, float64, error) {
	pairsParam := fmt.Sprintf("%s,%s;%s,%s",
		strconv.FormatFloat(o.Lat, 'f', 6, 64), strconv.FormatFloat(o.Lng, 'f', 6, 64),
		strconv.FormatFloat(d.Lat, 'f', 6, 64), strconv.FormatFloat(d.Lng, 'f', 6, 64))

	u, err := url.Parse(strings.TrimRight(p.baseURL, "/") + "/route")
	if err != nil {
		return 0, 0, fmt.Errorf("building route URL: %w", err)
	}
	q := u.Query()
	q.Set("pairs", pairsParam)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("building route request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("routing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, 0, fmt.Errorf("routing endpoint returned status %d", resp.StatusCode)
	}

	var legs []routeLeg
	if err := json.NewDecoder(resp.Body).Decode(&legs); err != nil {
		return 0, 0, fmt.Errorf("decoding routing response: %w", err)
	}
	if len(legs) == 0 {
		return 0, 0, fmt.Errorf("routing endpoint returned no legs")
	}
	return legs[0].KM, legs[0].Min, nil
}
