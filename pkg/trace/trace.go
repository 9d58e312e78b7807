// Package trace models the recorded outcome of executing a chromosome
// against the live application: the sequence of observed page states, the
// error signatures triggered along the way and how the execution ended.
package trace

import (
	"crypto/md5"
	"encoding/hex"
)

// Status is the terminal status of an execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCrashed   Status = "crashed"
	StatusTimedOut  Status = "timed_out"
)

// PageVisit records the page observed after navigation or after one
// executed action.
type PageVisit struct {
	URL       string
	Signature string
}

// Trace is the execution record for a single chromosome. The first visit
// is the state of the page before any action runs; visit i+1 is the state
// observed after action i.
type Trace struct {
	Visits []PageVisit
	Errors []string
	Status Status
}

// New returns an empty trace with completed status.
func New() *Trace {
	return &Trace{Status: StatusCompleted}
}

// RecordVisit appends an observed page state.
func (t *Trace) RecordVisit(url, signature string) {
	t.Visits = append(t.Visits, PageVisit{URL: url, Signature: signature})
}

// RecordError appends an error signature, keeping the list distinct.
func (t *Trace) RecordError(signature string) {
	for _, existing := range t.Errors {
		if existing == signature {
			return
		}
	}
	t.Errors = append(t.Errors, signature)
}

// Empty reports whether the execution observed no page state at all.
func (t *Trace) Empty() bool {
	return len(t.Visits) == 0
}

// Steps returns the number of actions the execution got through: one
// fewer than the visit count, since the first visit precedes any action.
func (t *Trace) Steps() int {
	if len(t.Visits) == 0 {
		return 0
	}
	return len(t.Visits) - 1
}

// DistinctURLs counts unique visited URLs, set-semantics.
func (t *Trace) DistinctURLs() int {
	seen := make(map[string]struct{}, len(t.Visits))
	for _, v := range t.Visits {
		seen[v.URL] = struct{}{}
	}
	return len(seen)
}

// DistinctSignatures counts unique page-state signatures, set-semantics.
func (t *Trace) DistinctSignatures() int {
	seen := make(map[string]struct{}, len(t.Visits))
	for _, v := range t.Visits {
		seen[v.Signature] = struct{}{}
	}
	return len(seen)
}

// DistinctErrors counts unique error signatures. Errors is kept distinct
// by RecordError, so this is its length.
func (t *Trace) DistinctErrors() int {
	return len(t.Errors)
}

// Boundaries returns the action indices at which the page-state signature
// changed: index k is reported when the state after action k-1 differs
// from the state before it. These are the context boundaries preferred as
// crossover cut points, each valid as a cut in [1, Steps()].
func (t *Trace) Boundaries() []int {
	var boundaries []int
	for i := 1; i < len(t.Visits); i++ {
		if t.Visits[i].Signature != t.Visits[i-1].Signature {
			boundaries = append(boundaries, i)
		}
	}
	return boundaries
}

// Signature digests a URL and serialized DOM into a page-state signature.
func Signature(url, dom string) string {
	sum := md5.Sum([]byte(url + "::" + dom))
	return hex.EncodeToString(sum[:])
}
