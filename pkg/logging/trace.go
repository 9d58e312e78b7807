package logging

import (
	"context"
)

type contextKey string

const (
	runIDKey        contextKey = "run_id"
	generationKey   contextKey = "generation"
	chromosomeIDKey contextKey = "chromosome_id"
)

// WithRunID returns a context carrying the identifier of an evolutionary run.
// Every log entry written with this context is tagged with the run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID extracts the run ID from the context, if present.
func GetRunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok
}

// WithGeneration returns a context carrying the current generation index.
func WithGeneration(ctx context.Context, generation int) context.Context {
	return context.WithValue(ctx, generationKey, generation)
}

// GetGeneration extracts the generation index from the context, if present.
func GetGeneration(ctx context.Context) (int, bool) {
	g, ok := ctx.Value(generationKey).(int)
	return g, ok
}

// WithChromosomeID returns a context carrying the chromosome currently
// being executed. Set by the engine around each runner dispatch so runner
// logs can be correlated back to an individual.
func WithChromosomeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, chromosomeIDKey, id)
}

// GetChromosomeID extracts the chromosome ID from the context, if present.
func GetChromosomeID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(chromosomeIDKey).(string)
	return id, ok
}
