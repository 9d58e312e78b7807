package logging

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlightRecorderDefaults(t *testing.T) {
	fr := NewFlightRecorder()
	require.NotNil(t, fr)
	assert.NotNil(t, fr.recorder)
	assert.Equal(t, 10*time.Second, fr.config.MinAge)
	assert.False(t, fr.Enabled())
}

func TestFlightRecorderOptions(t *testing.T) {
	fr := NewFlightRecorder(WithMinAge(30*time.Second), WithMaxBytes(1<<20))
	assert.Equal(t, 30*time.Second, fr.config.MinAge)
	assert.Equal(t, uint64(1<<20), fr.config.MaxBytes)
}

func TestFlightRecorderStartStopIdempotent(t *testing.T) {
	fr := NewFlightRecorder(WithMinAge(time.Second))

	require.NoError(t, fr.Start())
	assert.True(t, fr.Enabled())
	require.NoError(t, fr.Start())

	fr.Stop()
	assert.False(t, fr.Enabled())
	fr.Stop()
	assert.False(t, fr.Enabled())
}

func TestSnapshotWritesSessionTrace(t *testing.T) {
	fr := NewFlightRecorder(WithMinAge(time.Second))
	require.NoError(t, fr.Start())
	defer fr.Stop()

	// Let some trace data accumulate.
	time.Sleep(10 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "uievolve_session.trace")
	require.NoError(t, fr.Snapshot(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSnapshotWhenStoppedWritesNothing(t *testing.T) {
	fr := NewFlightRecorder()

	path := filepath.Join(t.TempDir(), "uievolve_session.trace")
	require.NoError(t, fr.Snapshot(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotOnErrorOnlyOnFailure(t *testing.T) {
	fr := NewFlightRecorder(WithMinAge(time.Second))
	require.NoError(t, fr.Start())
	defer fr.Stop()

	time.Sleep(10 * time.Millisecond)

	// A session failure passes through unchanged and leaves a snapshot.
	sessionErr := stderrors.New("session setup failed: chrome exited")
	path := filepath.Join(t.TempDir(), "session_failure.trace")
	assert.Equal(t, sessionErr, fr.SnapshotOnError(sessionErr, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// A clean execution leaves no file behind.
	cleanPath := filepath.Join(t.TempDir(), "clean.trace")
	assert.NoError(t, fr.SnapshotOnError(nil, cleanPath))
	_, err = os.Stat(cleanPath)
	assert.True(t, os.IsNotExist(err))
}

func TestTraceHelpers(t *testing.T) {
	ctx := context.Background()

	endRegion := TraceRegion(ctx, "EvaluatePopulation")
	require.NotNil(t, endRegion)
	endRegion()

	taskCtx, endTask := TraceTask(ctx, "EvolutionRun")
	require.NotNil(t, taskCtx)
	require.NotNil(t, endTask)
	endTask()

	TraceLog(taskCtx, "engine", "generation complete")
}
