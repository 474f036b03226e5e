package matchboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/zap"
)

// LoadFunc resolves a URL to a drawable image. Supplied by the host
// application (file reads, HTTP fetches, embedded assets).
type LoadFunc func(ctx context.Context, url string) (*ebiten.Image, error)

// ProgressFunc reports cumulative preload progress after each batch settles.
// done counts URLs that reached a terminal state (cached or permanently
// failed). It may be called from loader goroutines.
type ProgressFunc func(done, total int)

// LoaderOptions tunes the asset loader. Zero values take the defaults.
type LoaderOptions struct {
	BatchSize        int           // URLs per batch (default 5)
	BatchConcurrency int           // batches in flight at once (default 2)
	RetryAttempts    int           // extra attempts after the first failure (default 2)
	RetryDelay       time.Duration // base delay before a retry pass, doubled each pass (default 250ms)
	CacheCeiling     int           // entries above which eviction kicks in (default 128)
}

func (o LoaderOptions) withDefaults() LoaderOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 5
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 2
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	} else if o.RetryAttempts == 0 {
		o.RetryAttempts = 2
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 250 * time.Millisecond
	}
	if o.CacheCeiling <= 0 {
		o.CacheCeiling = 128
	}
	return o
}

// assetEntry is a cached asset with LRU bookkeeping.
type assetEntry struct {
	url      string
	img      *ebiten.Image
	lastUsed uint64
}

// Loader loads and caches card art with bounded concurrency, retry, and LRU
// eviction. The cache is owned exclusively by the Loader; consumers receive
// the cached image and must not deallocate it.
type Loader struct {
	mu    sync.Mutex
	load  LoadFunc
	opts  LoaderOptions
	cache map[string]*assetEntry
	// attempts counts failed attempts per URL. A URL is permanently failed
	// once attempts exceeds the retry budget; it is skipped by Preload until
	// ClearFailed.
	attempts map[string]int
	useTick  uint64
	log      *zap.SugaredLogger
}

// NewLoader creates a Loader around the given load function.
func NewLoader(load LoadFunc, opts LoaderOptions) *Loader {
	return &Loader{
		load:     load,
		opts:     opts.withDefaults(),
		cache:    make(map[string]*assetEntry),
		attempts: make(map[string]int),
		log:      zap.NewNop().Sugar(),
	}
}

// SetLogger sets the logger for load failures. A nil logger disables it.
func (l *Loader) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	l.log = log
}

// maxAttempts is the total tries a URL gets before being marked permanent.
func (l *Loader) maxAttempts() int {
	return 1 + l.opts.RetryAttempts
}

// Preload loads the given URLs in fixed-size batches with bounded batch
// concurrency. Already-cached and permanently failed URLs are skipped.
// Individual failures never fail the whole preload: the per-URL retry budget
// is spent inside the URL's batch and exhausted URLs land in the permanently
// failed set. Returns ctx.Err() on cancellation, nil otherwise.
func (l *Loader) Preload(ctx context.Context, urls []string, onProgress ProgressFunc) error {
	pending := l.filterPending(urls)
	total := len(pending)
	if total == 0 {
		if onProgress != nil {
			onProgress(0, 0)
		}
		return ctx.Err()
	}

	var batches [][]string
	for len(pending) > 0 {
		n := l.opts.BatchSize
		if n > len(pending) {
			n = len(pending)
		}
		batches = append(batches, pending[:n])
		pending = pending[n:]
	}

	var done int
	var progressMu sync.Mutex
	swg := sizedwaitgroup.New(l.opts.BatchConcurrency)
	for _, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		swg.Add()
		go func(batch []string) {
			defer swg.Done()
			l.runBatch(ctx, batch)
			progressMu.Lock()
			done += len(batch)
			settled := done
			progressMu.Unlock()
			if onProgress != nil {
				onProgress(settled, total)
			}
		}(batch)
	}
	swg.Wait()
	return ctx.Err()
}

// filterPending deduplicates urls and drops cached and permanently failed ones.
func (l *Loader) filterPending(urls []string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		if _, ok := l.cache[u]; ok {
			continue
		}
		if l.attempts[u] >= l.maxAttempts() {
			continue
		}
		out = append(out, u)
	}
	return out
}

// runBatch issues all loads in the batch concurrently and awaits settlement,
// then retries the failed subset with a doubling delay until the retry budget
// is spent. URLs exhausting the budget are marked permanently failed.
func (l *Loader) runBatch(ctx context.Context, batch []string) {
	pending := batch
	delay := l.opts.RetryDelay
	for pass := 0; pass < l.maxAttempts() && len(pending) > 0; pass++ {
		if pass > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay *= 2
		}
		pending = l.loadAll(ctx, pending)
	}
}

// loadAll loads every URL concurrently and returns the failed subset.
func (l *Loader) loadAll(ctx context.Context, urls []string) []string {
	type result struct {
		url string
		img *ebiten.Image
		err error
	}
	results := make([]result, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			img, err := l.load(ctx, u)
			results[i] = result{url: u, img: img, err: err}
		}(i, u)
	}
	wg.Wait()

	var failed []string
	for _, r := range results {
		if r.err != nil || r.img == nil {
			failed = append(failed, r.url)
			l.recordFailure(r.url, r.err)
			continue
		}
		l.store(r.url, r.img)
	}
	return failed
}

func (l *Loader) recordFailure(url string, err error) {
	l.mu.Lock()
	l.attempts[url]++
	n := l.attempts[url]
	permanent := n >= l.maxAttempts()
	l.mu.Unlock()
	l.log.Warnw("asset load failed", "url", url, "attempt", n, "permanent", permanent, "error", err)
}

// store inserts an image into the cache. The cache is keyed by URL and
// idempotent: a stale duplicate from a superseded preload is discarded.
func (l *Loader) store(url string, img *ebiten.Image) {
	l.mu.Lock()
	if _, ok := l.cache[url]; ok {
		l.mu.Unlock()
		img.Deallocate()
		return
	}
	l.useTick++
	l.cache[url] = &assetEntry{url: url, img: img, lastUsed: l.useTick}
	delete(l.attempts, url)
	l.evictLocked()
	l.mu.Unlock()
}

// evictLocked shrinks the cache to 70% of the ceiling once it exceeds the
// ceiling, releasing the least-recently-used images first. Caller holds mu.
func (l *Loader) evictLocked() {
	if len(l.cache) <= l.opts.CacheCeiling {
		return
	}
	target := l.opts.CacheCeiling * 7 / 10

	entries := make([]*assetEntry, 0, len(l.cache))
	for _, e := range l.cache {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastUsed < entries[j].lastUsed
	})
	for _, e := range entries {
		if len(l.cache) <= target {
			break
		}
		e.img.Deallocate()
		delete(l.cache, e.url)
	}
}

// Get performs a synchronous cache lookup, falling back to an on-demand
// single load when the URL is absent and not permanently failed. Returns nil
// when the asset is unavailable.
func (l *Loader) Get(ctx context.Context, url string) *ebiten.Image {
	if img := l.Cached(url); img != nil {
		return img
	}
	l.mu.Lock()
	exhausted := l.attempts[url] >= l.maxAttempts()
	l.mu.Unlock()
	if exhausted {
		return nil
	}

	img, err := l.load(ctx, url)
	if err != nil || img == nil {
		l.recordFailure(url, err)
		return nil
	}
	l.store(url, img)
	return l.Cached(url)
}

// Cached returns the cached image for url, or nil. Bumps LRU recency on hit.
func (l *Loader) Cached(url string) *ebiten.Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.cache[url]
	if !ok {
		return nil
	}
	l.useTick++
	e.lastUsed = l.useTick
	return e.img
}

// Len returns the number of cached assets.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// FailedLen returns the number of permanently failed URLs.
func (l *Loader) FailedLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, a := range l.attempts {
		if a >= l.maxAttempts() {
			n++
		}
	}
	return n
}

// ClearFailed forgets all failure records so future preloads may try again.
func (l *Loader) ClearFailed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = make(map[string]int)
}

// Clear releases every cached image and empties the cache.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.cache {
		e.img.Deallocate()
	}
	l.cache = make(map[string]*assetEntry)
}
