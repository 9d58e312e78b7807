package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/genome"
	"github.com/uievolve/uievolve/pkg/trace"
)

// MockRunner is a mock implementation of engine.Runner.
type MockRunner struct {
	mock.Mock

	mu    sync.Mutex
	calls int
}

func (m *MockRunner) Execute(ctx context.Context, chromosome *genome.Chromosome) (*trace.Trace, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	args := m.Called(ctx, chromosome)
	tr, _ := args.Get(0).(*trace.Trace)
	return tr, args.Error(1)
}

// Calls reports how many times Execute ran, across goroutines.
func (m *MockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ScriptedRunner executes chromosomes with a caller-supplied function.
// Engine tests use it when the response should depend on the chromosome
// rather than on call order.
type ScriptedRunner struct {
	mu     sync.Mutex
	calls  int
	Script func(chromosome *genome.Chromosome) (*trace.Trace, error)
}

func (r *ScriptedRunner) Execute(ctx context.Context, chromosome *genome.Chromosome) (*trace.Trace, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.Script(chromosome)
}

func (r *ScriptedRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// SmallCatalog builds a catalog with one action of each kind, enough to
// exercise sampling, mutation and crossover.
func SmallCatalog() *catalog.Catalog {
	cat, err := catalog.New([]catalog.Action{
		{Kind: catalog.Click, Target: catalog.Selector{Kind: catalog.Button, ID: "submit"}},
		{Kind: catalog.Click, Target: catalog.Selector{Kind: catalog.Link, Text: "Next page"}},
		{Kind: catalog.Fill, Target: catalog.Selector{Kind: catalog.Input, Name: "q"}, Value: "hello"},
		{Kind: catalog.Select, Target: catalog.Selector{Kind: catalog.Dropdown, ID: "country"}, Value: "NL"},
		{Kind: catalog.Scroll, Target: catalog.Selector{Kind: catalog.Button, Class: "footer"}},
	})
	if err != nil {
		panic(err)
	}
	return cat
}

// CompletedTrace builds a completed trace visiting n distinct pages, each
// with its own signature.
func CompletedTrace(n int) *trace.Trace {
	tr := trace.New()
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("https://app.test/page%d", i)
		tr.RecordVisit(url, trace.Signature(url, fmt.Sprintf("<html>%d</html>", i)))
	}
	tr.Status = trace.StatusCompleted
	return tr
}

// CrashedTrace builds a trace that never got past the start page.
func CrashedTrace(signature string) *trace.Trace {
	tr := trace.New()
	tr.RecordVisit("https://app.test/", trace.Signature("https://app.test/", "<html></html>"))
	tr.RecordError(signature)
	tr.Status = trace.StatusCrashed
	return tr
}
