package classify

import (
	"context"
	"log"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/tallyreco/tds"
)

// Source classifies raw ledger names into TDS section codes. A Source may
// resolve only some of the names it was given; unresolved names are simply
// absent from the returned map.
type Source interface {
	Classify(ctx context.Context, ledgers []string) (map[string]string, error)
}

// StaticSource serves classifications from a fixed normalized-key table,
// for mappings maintained by hand.
type StaticSource map[string]string

func (s StaticSource) Classify(_ context.Context, ledgers []string) (map[string]string, error) {
	out := make(map[string]string, len(ledgers))
	for _, name := range ledgers {
		if section, ok := s[tds.NormalizeLedger(name)]; ok {
			out[name] = section
		}
	}
	return out, nil
}

// Mapping is one per-run export row: a raw ledger name and the section it
// resolves to.
type Mapping struct {
	Ledger  string
	Section string
}

// Runner drives a Source over the ledger names the cache cannot answer.
// Calls go out in fixed-size batches, one in flight at a time, spaced by a
// fixed delay. A failed batch is logged and skipped; its names stay
// unresolved and surface downstream as "NA" sections rather than aborting
// the run.
type Runner struct {
	Source    Source
	Store     *Store
	BatchSize int

	mu      sync.Mutex
	limiter *rate.Limiter
	memo    *gocache.Cache
}

// NewRunner returns a Runner enforcing the given inter-call delay.
func NewRunner(src Source, store *Store, delay time.Duration) *Runner {
	if delay <= 0 {
		delay = time.Nanosecond
	}
	return &Runner{
		Source:    src,
		Store:     store,
		BatchSize: 10,
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
		memo:      gocache.New(time.Hour, 10*time.Minute),
	}
}

// Map classifies every given ledger not already in the cache, appends the
// new results, and returns the per-run export: one row per input ledger,
// "NA" for anything still unresolved. The returned used-set (normalized
// keys) is what MarkInUse wants afterwards.
func (r *Runner) Map(ctx context.Context, ledgers []string) ([]Mapping, map[string]bool, error) {
	cached, err := r.Store.Load()
	if err != nil {
		return nil, nil, err
	}

	// Normalized key to first raw spelling, first-seen order.
	var pending []string
	seen := make(map[string]bool)
	for _, name := range ledgers {
		key := tds.NormalizeLedger(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := cached[key]; ok {
			continue
		}
		if _, ok := r.memo.Get(key); ok {
			continue
		}
		pending = append(pending, name)
	}

	results := make(map[string]string)
	for start := 0; start < len(pending); start += r.BatchSize {
		end := min(start+r.BatchSize, len(pending))
		batch := pending[start:end]

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
		r.mu.Lock()
		got, err := r.Source.Classify(ctx, batch)
		r.mu.Unlock()
		if err != nil {
			log.Printf("classify: batch of %d failed: %v", len(batch), err)
			continue
		}
		for raw, section := range got {
			results[raw] = section
			r.memo.SetDefault(tds.NormalizeLedger(raw), section)
		}
	}

	if len(results) > 0 {
		// Cache write failures must not sink the classification we already
		// have in hand.
		if err := r.Store.Append(results); err != nil {
			log.Printf("classify: cache append failed: %v", err)
		}
	}

	full, err := r.Store.Load()
	if err != nil {
		return nil, nil, err
	}

	export := make([]Mapping, 0, len(ledgers))
	used := make(map[string]bool, len(ledgers))
	for _, name := range ledgers {
		key := tds.NormalizeLedger(name)
		section, ok := full[key]
		if !ok {
			if memoed, hit := r.memo.Get(key); hit {
				section, ok = memoed.(string), true
			}
		}
		if !ok {
			section = tds.SectionNone
		}
		export = append(export, Mapping{Ledger: name, Section: section})
		used[key] = true
	}
	return export, used, nil
}
