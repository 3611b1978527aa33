// Package search holds the browse-screen presentation logic: a baseline
// sample of the catalog fetched once per session, and live search results
// driven by debounced query input.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"scentara/internal/gateway"
	"scentara/internal/model"
)

const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultSearchLimit = 50
	DefaultSampleLimit = 20
)

type Config struct {
	Debounce    time.Duration
	SearchLimit int
	SampleLimit int
}

type Browser struct {
	catalog gateway.CatalogGateway
	log     *slog.Logger

	debounce    time.Duration
	searchLimit int
	sampleLimit int

	mu           sync.Mutex
	timer        *time.Timer
	seq          uint64
	sampleLoaded bool
	sample       []model.Perfume
	results      []model.Perfume
	searching    bool
	onResults    func([]model.Perfume)
}

func NewBrowser(catalog gateway.CatalogGateway, logger *slog.Logger, cfg Config) *Browser {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = DefaultSampleLimit
	}

	return &Browser{
		catalog:     catalog,
		log:         logger,
		debounce:    cfg.Debounce,
		searchLimit: cfg.SearchLimit,
		sampleLimit: cfg.SampleLimit,
	}
}

// OnResults registers the render callback. It receives the current search
// results, or nil when the view reverts to the baseline sample.
func (b *Browser) OnResults(fn func([]model.Perfume)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onResults = fn
}

// LoadSample fetches the baseline sample once per session; later calls are
// no-ops until Refresh forces a re-fetch.
func (b *Browser) LoadSample(ctx context.Context) error {
	b.mu.Lock()
	if b.sampleLoaded {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	return b.fetchSample(ctx)
}

// Refresh re-fetches the baseline sample, ignoring the already-loaded guard.
// This backs the browse screen's pull-to-refresh.
func (b *Browser) Refresh(ctx context.Context) error {
	return b.fetchSample(ctx)
}

func (b *Browser) fetchSample(ctx context.Context) error {
	perfumes, err := b.catalog.ListPerfumes(ctx, b.sampleLimit, "rating_count", true)
	if err != nil {
		return fmt.Errorf("failed to load sample: %w", err)
	}

	b.mu.Lock()
	b.sample = perfumes
	b.sampleLoaded = true
	b.mu.Unlock()
	return nil
}

// SetQuery feeds one keystroke's worth of query input. The remote search
// fires only after the debounce window passes without further input. An
// empty or whitespace-only query cancels any pending search, clears the
// results, and reverts to the sample view.
func (b *Browser) SetQuery(ctx context.Context, query string) {
	query = strings.TrimSpace(query)

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	// Any in-flight search response is now stale.
	b.seq++
	seq := b.seq

	if query == "" {
		b.results = nil
		b.searching = false
		notify := b.onResults
		b.mu.Unlock()
		if notify != nil {
			notify(nil)
		}
		return
	}

	b.searching = true
	b.timer = time.AfterFunc(b.debounce, func() {
		b.runSearch(ctx, query, seq)
	})
	b.mu.Unlock()
}

// runSearch issues the remote call for one debounced query. The sequence
// number pins the response to the query generation that issued it: a slow
// response from a superseded query is discarded instead of overwriting
// newer results.
func (b *Browser) runSearch(ctx context.Context, query string, seq uint64) {
	b.mu.Lock()
	if seq != b.seq {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	perfumes, err := b.catalog.SearchPerfumes(ctx, query, b.searchLimit)

	b.mu.Lock()
	if seq != b.seq {
		b.mu.Unlock()
		return
	}
	b.searching = false
	if err != nil {
		b.log.Warn("search failed", "query", query, "error", err)
		b.mu.Unlock()
		return
	}
	b.results = perfumes
	notify := b.onResults
	b.mu.Unlock()

	if notify != nil {
		notify(perfumes)
	}
}

// Sample returns the baseline sample.
func (b *Browser) Sample() []model.Perfume {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sample
}

// Results returns the current search results, or nil when the baseline
// sample view is showing.
func (b *Browser) Results() []model.Perfume {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results
}

// Searching reports whether a debounced search is pending or in flight.
func (b *Browser) Searching() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.searching
}

// Stop cancels any pending debounced search.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.seq++
}
