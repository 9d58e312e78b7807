package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/errors"
	"github.com/uievolve/uievolve/pkg/genome"
	"github.com/uievolve/uievolve/pkg/trace"
)

// Evaluation is one archived execution record.
type Evaluation struct {
	RunID        string
	ChromosomeID string
	Fingerprint  string
	Generation   int
	Actions      []catalog.Action
	Fitness      float64
	Status       trace.Status
	DistinctURLs int
	States       int
	ErrorSigs    []string
	CreatedAt    time.Time
}

// archivedAction is the JSON shape an action is stored as.
type archivedAction struct {
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Class string `json:"class,omitempty"`
	Text  string `json:"text,omitempty"`
	Value string `json:"value,omitempty"`
}

// SQLiteArchive records runs and their evaluations in a SQLite database,
// one row per executed chromosome.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (or creates) the archive database at path.
func NewSQLiteArchive(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "opening archive database"),
			errors.Fields{"path": path})
	}
	a := &SQLiteArchive{db: db}
	if err := a.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *SQLiteArchive) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id     TEXT PRIMARY KEY,
		target_url TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS evaluations (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL,
		chromosome_id TEXT NOT NULL,
		fingerprint   TEXT NOT NULL,
		generation    INTEGER NOT NULL,
		actions       TEXT NOT NULL,
		fitness       REAL NOT NULL,
		status        TEXT NOT NULL,
		distinct_urls INTEGER NOT NULL,
		states        INTEGER NOT NULL,
		error_sigs    TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evaluations_run ON evaluations(run_id, fitness DESC);
	CREATE INDEX IF NOT EXISTS idx_evaluations_fingerprint ON evaluations(fingerprint);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return errors.Wrap(err, errors.Unknown, "initializing archive schema")
	}
	return nil
}

// BeginRun registers a run before its first evaluation.
func (a *SQLiteArchive) BeginRun(ctx context.Context, runID, targetURL string) error {
	_, err := a.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO runs (run_id, target_url, started_at) VALUES (?, ?, ?)",
		runID, targetURL, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "registering run")
	}
	return nil
}

// Record appends one evaluation to the archive.
func (a *SQLiteArchive) Record(ctx context.Context, ev Evaluation) error {
	actions := make([]archivedAction, 0, len(ev.Actions))
	for _, action := range ev.Actions {
		actions = append(actions, archivedAction{
			Kind:  string(action.Kind),
			ID:    action.Target.ID,
			Name:  action.Target.Name,
			Class: action.Target.Class,
			Text:  action.Target.Text,
			Value: action.Value,
		})
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "encoding actions")
	}
	errsJSON, err := json.Marshal(ev.ErrorSigs)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "encoding error signatures")
	}

	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO evaluations
			(run_id, chromosome_id, fingerprint, generation, actions,
			 fitness, status, distinct_urls, states, error_sigs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.ChromosomeID, ev.Fingerprint, ev.Generation, string(actionsJSON),
		ev.Fitness, string(ev.Status), ev.DistinctURLs, ev.States, string(errsJSON), createdAt)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "recording evaluation")
	}
	return nil
}

// RecordEvaluation archives a scored chromosome. It satisfies the
// engine's recorder hook.
func (a *SQLiteArchive) RecordEvaluation(ctx context.Context, runID string, generation int, c *genome.Chromosome) error {
	fitness, ok := c.Fitness()
	if !ok {
		return errors.New(errors.InvalidInput, "chromosome has no evaluation to record")
	}
	ev := Evaluation{
		RunID:        runID,
		ChromosomeID: c.ID(),
		Fingerprint:  c.Fingerprint(),
		Generation:   generation,
		Actions:      c.Actions(),
		Fitness:      fitness,
	}
	if tr := c.Trace(); tr != nil {
		ev.Status = tr.Status
		ev.DistinctURLs = tr.DistinctURLs()
		ev.States = tr.DistinctSignatures()
		ev.ErrorSigs = append([]string(nil), tr.Errors...)
	}
	return a.Record(ctx, ev)
}

// BestForRun returns the highest-fitness evaluation archived for a run.
func (a *SQLiteArchive) BestForRun(ctx context.Context, runID string) (*Evaluation, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT chromosome_id, fingerprint, generation, fitness, status,
		       distinct_urls, states, created_at
		FROM evaluations
		WHERE run_id = ?
		ORDER BY fitness DESC, id ASC
		LIMIT 1`, runID)

	ev := Evaluation{RunID: runID}
	var status string
	err := row.Scan(&ev.ChromosomeID, &ev.Fingerprint, &ev.Generation, &ev.Fitness,
		&status, &ev.DistinctURLs, &ev.States, &ev.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.WithFields(
			errors.New(errors.TargetNotFound, "run has no archived evaluations"),
			errors.Fields{"run_id": runID})
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "querying best evaluation")
	}
	ev.Status = trace.Status(status)
	return &ev, nil
}

// EvaluationCount reports how many evaluations a run archived.
func (a *SQLiteArchive) EvaluationCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM evaluations WHERE run_id = ?", runID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.Unknown, "counting evaluations")
	}
	return n, nil
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
