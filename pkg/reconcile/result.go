package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/avenirdata/ckansync/pkg/catalog"
)

// Counts tallies upsert outcomes for one entity kind.
type Counts struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Result accumulates upsert outcomes per entity kind over a run. The run
// is single-threaded, so no locking is needed.
type Result struct {
	Kinds map[catalog.Kind]*Counts
}

// NewResult creates an empty Result.
func NewResult() *Result {
	return &Result{Kinds: make(map[catalog.Kind]*Counts)}
}

func (r *Result) counts(kind catalog.Kind) *Counts {
	c, ok := r.Kinds[kind]
	if !ok {
		c = &Counts{}
		r.Kinds[kind] = c
	}
	return c
}

func (r *Result) created(kind catalog.Kind) { r.counts(kind).Created++ }
func (r *Result) updated(kind catalog.Kind) { r.counts(kind).Updated++ }
func (r *Result) skipped(kind catalog.Kind) { r.counts(kind).Skipped++ }
func (r *Result) failed(kind catalog.Kind)  { r.counts(kind).Failed++ }

// Total sums the counters across all entity kinds.
func (r *Result) Total() Counts {
	var total Counts
	for _, c := range r.Kinds {
		total.Created += c.Created
		total.Updated += c.Updated
		total.Skipped += c.Skipped
		total.Failed += c.Failed
	}
	return total
}

// String renders the per-kind counters in a stable order.
func (r *Result) String() string {
	kinds := make([]string, 0, len(r.Kinds))
	for kind := range r.Kinds {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		c := r.Kinds[catalog.Kind(kind)]
		parts = append(parts, fmt.Sprintf("%s: %d created, %d updated, %d skipped, %d failed",
			kind, c.Created, c.Updated, c.Skipped, c.Failed))
	}
	return strings.Join(parts, "; ")
}
