package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Journal entry kinds.
const (
	KindSpawn   = "spawn"
	KindDestroy = "destroy"
	KindEscape  = "escape"
	KindStrike  = "strike"
	KindAlert   = "alert"
	KindFire    = "fire"
)

// JournalEntry is one engagement event. Unused fields stay zero.
type JournalEntry struct {
	Kind     string
	EntityID int32
	X, Y     float64
	Radius   float64
	Count    int
	Score    float64
	Level    int
	Weapon   string
	At       time.Time
}

// RunTotals are written when a run ends.
type RunTotals struct {
	Spawned   int
	Destroyed int
	Escaped   int
	Strikes   int
}

// JournalRepo records one simulation run and its engagement events.
type JournalRepo struct {
	db    *DB
	runID uuid.UUID
}

// NewJournalRepo assigns a fresh run id.
func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db, runID: uuid.New()}
}

func (r *JournalRepo) RunID() uuid.UUID { return r.runID }

// StartRun inserts the run row. Must precede WriteBatch.
func (r *JournalRepo) StartRun(ctx context.Context, name string, seed int64, startedAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO runs (id, name, seed, started_at) VALUES ($1, $2, $3, $4)`,
		r.runID, name, seed, startedAt,
	)
	if err != nil {
		return fmt.Errorf("journal start run: %w", err)
	}
	return nil
}

// WriteBatch inserts entries in a single transaction.
func (r *JournalRepo) WriteBatch(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO engagement_journal (run_id, kind, entity_id, x, y, radius, count, score, level, weapon, at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			r.runID, e.Kind, e.EntityID, e.X, e.Y, e.Radius, e.Count, e.Score, e.Level, e.Weapon, e.At,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return tx.Commit(ctx)
}

// FinishRun stamps the end time and totals.
func (r *JournalRepo) FinishRun(ctx context.Context, endedAt time.Time, t RunTotals) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE runs SET ended_at = $2, spawned = $3, destroyed = $4, escaped = $5, strikes = $6
		 WHERE id = $1`,
		r.runID, endedAt, t.Spawned, t.Destroyed, t.Escaped, t.Strikes,
	)
	if err != nil {
		return fmt.Errorf("journal finish run: %w", err)
	}
	return nil
}

// CountEntries returns how many entries this run has written.
func (r *JournalRepo) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM engagement_journal WHERE run_id = $1`, r.runID,
	).Scan(&n)
	return n, err
}
