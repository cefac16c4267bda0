// Package aggregate merges the results of independent concurrent fetch
// streams into one ordered, deduplicated collection.
//
// Output order is a design choice, not an API guarantee: entities appear
// in source declaration order (the direct list first, then each container
// in submission order, then per-container discovery order), never in
// fetch completion order. Concurrency upstream fills the per-source
// result lists; the merge itself is a deterministic post-processing step.
package aggregate

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	entitiesMergedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadvault_entities_merged_total",
		Help: "Entities accepted into the final collection by source kind",
	}, []string{"kind"})

	entitiesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadvault_entities_dropped_total",
		Help: "Entities dropped during merge by reason",
	}, []string{"reason"})
)

// Result is one entity slot from a fetch stream: either a value or a
// failure with a reason. Failed slots are dropped during merge.
type Result[T any] struct {
	ID    string
	Value T
	Err   error
}

// Ok builds a successful result.
func Ok[T any](id string, v T) Result[T] {
	return Result[T]{ID: id, Value: v}
}

// Failed builds a failed result slot.
func Failed[T any](id string, err error) Result[T] {
	return Result[T]{ID: id, Err: err}
}

// Source is one declared result stream. Declaration order across sources
// determines output order.
type Source[T any] struct {
	// Name identifies the source for logs and the report, for example
	// "direct" or "playlist:PL123".
	Name string

	// Container is true for sources discovered by container enumeration.
	Container bool

	// Results in per-source discovery order.
	Results []Result[T]
}

// Merge produces the final collection: failures are dropped with their
// reason recorded, successes are deduplicated by entity ID with
// first-seen-wins semantics over source declaration order. rep may be nil
// when no report is wanted.
func Merge[T any](rep *Report, sources ...Source[T]) []T {
	seen := make(map[string]struct{})
	var out []T

	for _, src := range sources {
		kind := "direct"
		if src.Container {
			kind = "container"
		}

		for _, res := range src.Results {
			if res.Err != nil {
				entitiesDroppedTotal.WithLabelValues("failed").Inc()
				log.Warn().
					Str("entity_id", res.ID).
					Str("source", src.Name).
					Err(res.Err).
					Msg("Dropping failed entity from collection")
				rep.entity(res.ID, src.Name, res.Err)
				continue
			}

			if _, dup := seen[res.ID]; dup {
				entitiesDroppedTotal.WithLabelValues("duplicate").Inc()
				log.Debug().
					Str("entity_id", res.ID).
					Str("source", src.Name).
					Msg("Duplicate entity, first occurrence wins")
				continue
			}

			seen[res.ID] = struct{}{}
			out = append(out, res.Value)
			entitiesMergedTotal.WithLabelValues(kind).Inc()
			rep.entity(res.ID, src.Name, nil)
		}
	}

	return out
}

// EntityOutcome records the fate of one entity fetch.
type EntityOutcome struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ContainerOutcome records the fate of one container enumeration.
type ContainerOutcome struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
}

// Report collects per-entity and per-container outcomes for the caller to
// summarize. Safe for concurrent use.
type Report struct {
	mu         sync.Mutex
	entities   []EntityOutcome
	containers []ContainerOutcome
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

func (r *Report) entity(id, source string, err error) {
	if r == nil {
		return
	}
	o := EntityOutcome{ID: id, Source: source, OK: err == nil}
	if err != nil {
		o.Reason = err.Error()
	}
	r.mu.Lock()
	r.entities = append(r.entities, o)
	r.mu.Unlock()
}

// Container records the outcome of one container enumeration. members is
// the number of member entities discovered (possibly partial on failure).
func (r *Report) Container(id string, members int, err error) {
	if r == nil {
		return
	}
	o := ContainerOutcome{ID: id, Members: members, OK: err == nil}
	if err != nil {
		o.Reason = err.Error()
	}
	r.mu.Lock()
	r.containers = append(r.containers, o)
	r.mu.Unlock()
}

// Entities returns the recorded entity outcomes.
func (r *Report) Entities() []EntityOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EntityOutcome(nil), r.entities...)
}

// Containers returns the recorded container outcomes.
func (r *Report) Containers() []ContainerOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ContainerOutcome(nil), r.containers...)
}

// Counts returns the number of succeeded and failed entity fetches.
func (r *Report) Counts() (succeeded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entities {
		if e.OK {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Summary renders a one-line human-readable summary.
func (r *Report) Summary() string {
	ok, failed := r.Counts()
	return fmt.Sprintf("%d archived, %d failed, %d containers scanned", ok, failed, len(r.Containers()))
}
