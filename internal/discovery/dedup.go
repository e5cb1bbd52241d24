package discovery

import (
	"context"

	"sjsage522/leadworker/internal/lead"
)

// LeadStore is the persistent lead collaborator
type LeadStore interface {
	Exists(ctx context.Context, websiteURL string) (bool, error)
	// UpsertDiscovered writes l keyed by its website URL
	UpsertDiscovered(ctx context.Context, l lead.Lead) error
}

// RunSet holds the website URLs seen during one crawl. It is not safe for
// concurrent use.
type RunSet struct {
	urls map[string]struct{}
}

// NewRunSet creates an empty run set
func NewRunSet() *RunSet {
	return &RunSet{urls: make(map[string]struct{})}
}

// Has reports whether key was added
func (r *RunSet) Has(key string) bool {
	_, ok := r.urls[key]
	return ok
}

// Add records key
func (r *RunSet) Add(key string) {
	r.urls[key] = struct{}{}
}

// Len returns the number of recorded keys
func (r *RunSet) Len() int {
	return len(r.urls)
}

// Verdict is the gate's decision for a website URL
type Verdict int

const (
	// Admitted means the URL is new to both the run and the store
	Admitted Verdict = iota
	// SeenInRun means the URL was already handled earlier in this crawl
	SeenInRun
	// KnownToStore means the store already holds the URL
	KnownToStore
)

func (v Verdict) String() string {
	switch v {
	case Admitted:
		return "admitted"
	case SeenInRun:
		return "seen_in_run"
	case KnownToStore:
		return "known_to_store"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a gate check. StoreErr is set when the
// existence lookup failed and the URL was admitted anyway.
type Decision struct {
	Verdict  Verdict
	StoreErr error
}

// Gate is the two-tier dedup check
type Gate struct {
	store LeadStore
	run   *RunSet
}

// NewGate creates a gate over store and the crawl's run set
func NewGate(store LeadStore, run *RunSet) *Gate {
	return &Gate{store: store, run: run}
}

// Check decides whether websiteURL is a new lead. The run set is consulted
// first so a URL costs at most one store lookup per crawl. Both admitted and
// store-known URLs are added to the run set.
func (g *Gate) Check(ctx context.Context, websiteURL string) Decision {
	if g.run.Has(websiteURL) {
		return Decision{Verdict: SeenInRun}
	}

	exists, err := g.store.Exists(ctx, websiteURL)
	g.run.Add(websiteURL)
	if err != nil {
		return Decision{Verdict: Admitted, StoreErr: err}
	}
	if exists {
		return Decision{Verdict: KnownToStore}
	}
	return Decision{Verdict: Admitted}
}
