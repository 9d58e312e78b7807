// Package engine drives the messy genetic algorithm: it evolves a
// population of variable-length action sequences against a live target,
// dispatching executions to a Runner, scoring the resulting traces and
// breeding the next generation until the generation limit or the patience window
// runs out.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/errors"
	"github.com/uievolve/uievolve/pkg/fitness"
	"github.com/uievolve/uievolve/pkg/genome"
	"github.com/uievolve/uievolve/pkg/logging"
	"github.com/uievolve/uievolve/pkg/trace"
)

// Runner executes one chromosome against a live browser session and
// returns its execution trace. Implementations must capture action
// failures, crashes and timeouts into the trace instead of returning an
// error; an error return is reserved for faults in the runner itself and
// is treated by the engine as a crashed execution.
type Runner interface {
	Execute(ctx context.Context, chromosome *genome.Chromosome) (*trace.Trace, error)
}

// EvalCache reuses results for action sequences the run has already
// executed. Implementations must be safe for concurrent use.
type EvalCache interface {
	Lookup(fingerprint string) (*trace.Trace, float64, bool)
	Store(fingerprint string, tr *trace.Trace, fitness float64)
}

// Recorder observes every completed evaluation. Recording failures are
// logged and never affect the run.
type Recorder interface {
	RecordEvaluation(ctx context.Context, runID string, generation int, chromosome *genome.Chromosome) error
}

// Option customizes an engine beyond its required collaborators.
type Option func(*Engine)

// WithEvalCache short-circuits executions whose action sequence was
// already evaluated this session.
func WithEvalCache(cache EvalCache) Option {
	return func(e *Engine) { e.evalCache = cache }
}

// WithRecorder archives every evaluation as it completes.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) { e.recorder = recorder }
}

// Result is the outcome of a run: the best chromosome ever observed, its
// fitness, the generation it first appeared in and how many generations
// completed.
type Result struct {
	Best        *genome.Chromosome
	Fitness     float64
	FoundAt     int
	Generations int
}

// bestRecord tracks the best chromosome across all generations. It never
// regresses: updates apply only on strict fitness improvement.
type bestRecord struct {
	mu         sync.Mutex
	chromosome *genome.Chromosome
	fitness    float64
	foundAt    int
}

// improve records the candidate if it strictly beats the current best and
// reports whether it did.
func (r *bestRecord) improve(c *genome.Chromosome, f float64, generation int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chromosome != nil && f <= r.fitness {
		return false
	}
	r.chromosome = c.Clone()
	r.fitness = f
	r.foundAt = generation
	return true
}

// Engine is the messy GA engine. One instance owns one run's state; it is
// not reused across runs.
type Engine struct {
	config    *Config
	catalog   *catalog.Catalog
	runner    Runner
	evaluator *fitness.Evaluator

	rng       *rand.Rand
	limiter   *rate.Limiter
	best      bestRecord
	runID     string
	evalCache EvalCache
	recorder  Recorder
}

// New builds an engine for one run. The catalog must be non-empty and the
// configuration valid; both are rejected here, before any execution.
func New(cfg *Config, cat *catalog.Catalog, runner Runner, evaluator *fitness.Evaluator, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cat == nil || cat.Len() == 0 {
		return nil, errors.New(errors.InvalidConfig, "action catalog is empty; nothing to evolve")
	}
	if runner == nil {
		return nil, errors.New(errors.InvalidConfig, "engine requires a runner")
	}
	if evaluator == nil {
		return nil, errors.New(errors.InvalidConfig, "engine requires a fitness evaluator")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var limiter *rate.Limiter
	if cfg.LaunchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.LaunchRate), 1)
	}

	e := &Engine{
		config:    cfg,
		catalog:   cat,
		runner:    runner,
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(seed)),
		limiter:   limiter,
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunID returns the identifier of this run, used to tag all log entries.
func (e *Engine) RunID() string {
	return e.runID
}

// Run executes the evolutionary loop and returns the best chromosome ever
// observed. The loop is strictly sequential across generations; within a
// generation, evaluations run concurrently on a bounded pool. Cancelling
// the context stops the run before the next generation starts and returns
// the best-ever record at that point.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	logger := logging.GetLogger()
	ctx = logging.WithRunID(ctx, e.runID)

	logger.Info(ctx, "Starting evolutionary run: population_size=%d, generations=%d, catalog_actions=%d",
		e.config.PopulationSize,
		e.config.Generations,
		e.catalog.Len())

	population := e.initialize()
	completed := 0
	stale := 0

	for generation := 0; generation < e.config.Generations; generation++ {
		if err := errors.CheckContext(ctx, "evolution"); err != nil {
			logger.Warn(ctx, "Run aborted before generation %d: %v", generation, err)
			break
		}

		genCtx := logging.WithGeneration(ctx, generation)
		e.evaluate(genCtx, population)

		stats := population.Stats()
		improved := e.recordBest(population, generation)
		if improved {
			stale = 0
		} else {
			stale++
		}
		completed = generation + 1

		logger.Info(genCtx, "Generation complete: best=%.3f, mean=%.3f, worst=%.3f, stale=%d",
			stats.Best, stats.Mean, stats.Worst, stale)

		if e.config.Patience > 0 && stale >= e.config.Patience {
			logger.Info(genCtx, "No improvement for %d generations, stopping early", stale)
			break
		}
		if generation == e.config.Generations-1 {
			break
		}

		population = e.nextGeneration(genCtx, population)
	}

	e.best.mu.Lock()
	defer e.best.mu.Unlock()
	if e.best.chromosome == nil {
		// Nothing was ever evaluated, which means the loop aborted
		// before the first generation finished.
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.Canceled, "run aborted before any evaluation completed")
		}
		return nil, errors.New(errors.InvariantViolated, "run finished without evaluating any chromosome")
	}

	logger.Info(ctx, "Run finished: best_fitness=%.3f, found_at=%d, generations=%d",
		e.best.fitness, e.best.foundAt, completed)

	return &Result{
		Best:        e.best.chromosome,
		Fitness:     e.best.fitness,
		FoundAt:     e.best.foundAt,
		Generations: completed,
	}, nil
}

// initialize samples the initial population with random lengths drawn
// from the catalog.
func (e *Engine) initialize() *genome.Population {
	members := make([]*genome.Chromosome, e.config.PopulationSize)
	for i := range members {
		members[i] = genome.Random(e.catalog, e.rng, e.config.MaxInitialLength)
	}
	return genome.NewPopulation(members, 0)
}

// evaluate scores every member lacking a valid cached fitness. Elites
// carried over unchanged keep their score and are not re-executed.
// Evaluations of distinct chromosomes are independent and I/O-bound, so
// they are dispatched across a bounded worker pool; the only state they
// share is the read-only catalog.
func (e *Engine) evaluate(ctx context.Context, population *genome.Population) {
	logger := logging.GetLogger()
	defer logging.TraceRegion(ctx, "EvaluatePopulation")()

	p := pool.New().WithMaxGoroutines(e.config.Concurrency)
	for _, member := range population.Members {
		if _, ok := member.Fitness(); ok {
			continue
		}
		member := member
		p.Go(func() {
			execCtx := logging.WithChromosomeID(ctx, member.ID())

			if e.evalCache != nil {
				if tr, score, ok := e.evalCache.Lookup(member.Fingerprint()); ok {
					member.SetResult(tr, score)
					logger.Debug(execCtx, "Evaluation cache hit: fitness=%.3f", score)
					e.record(execCtx, population.Generation, member)
					return
				}
			}

			if e.limiter != nil {
				if err := e.limiter.Wait(execCtx); err != nil {
					e.scoreCrash(member, "launch throttled: "+err.Error())
					e.record(execCtx, population.Generation, member)
					return
				}
			}

			execCtx, cancel := context.WithTimeout(execCtx, e.config.ExecutionTimeout)
			defer cancel()

			tr, err := e.runner.Execute(execCtx, member)
			if err != nil || tr == nil {
				// The runner contract routes all execution faults into
				// the trace; an error here is a runner fault and scores
				// like a crash.
				msg := "runner fault"
				if err != nil {
					msg = "runner fault: " + err.Error()
				}
				logger.Warn(execCtx, "Execution failed outside the trace contract: %s", msg)
				e.scoreCrash(member, msg)
				e.record(execCtx, population.Generation, member)
				return
			}

			score := e.evaluator.Score(tr, member.Len())
			member.SetResult(tr, score)
			if e.evalCache != nil {
				e.evalCache.Store(member.Fingerprint(), tr, score)
			}
			e.record(execCtx, population.Generation, member)
			logger.Debug(execCtx, "Evaluated chromosome: fitness=%.3f, length=%d, status=%s",
				score, member.Len(), tr.Status)
		})
	}
	p.Wait()
}

// record forwards a scored chromosome to the configured recorder.
func (e *Engine) record(ctx context.Context, generation int, member *genome.Chromosome) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordEvaluation(ctx, e.runID, generation, member); err != nil {
		logging.GetLogger().Warn(ctx, "Failed to archive evaluation: %v", err)
	}
}

// scoreCrash assigns the floor fitness with a synthesized crashed trace.
func (e *Engine) scoreCrash(member *genome.Chromosome, signature string) {
	tr := trace.New()
	tr.Status = trace.StatusCrashed
	tr.RecordError(signature)
	member.SetResult(tr, e.evaluator.Floor())
}

// recordBest folds the generation's evaluated members into the best-ever
// record and reports whether any of them improved it.
func (e *Engine) recordBest(population *genome.Population, generation int) bool {
	improved := false
	for _, member := range population.Members {
		f, ok := member.Fitness()
		if !ok {
			continue
		}
		if e.best.improve(member, f, generation) {
			improved = true
		}
	}
	return improved
}
