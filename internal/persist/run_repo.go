package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Run is one recorded simulation run.
type Run struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Seed      int64      `db:"seed"`
	StartedAt time.Time  `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"` // nil while running or after a crash
	Spawned   int        `db:"spawned"`
	Destroyed int        `db:"destroyed"`
	Escaped   int        `db:"escaped"`
	Strikes   int        `db:"strikes"`
}

// RunRepo reads finished and in-progress runs back out of the journal.
type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// List returns the most recent runs first. limit <= 0 returns all.
func (r *RunRepo) List(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, name, seed, started_at, ended_at, spawned, destroyed, escaped, strikes
	      FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[Run])
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

// Get loads one run. Returns pgx.ErrNoRows when it does not exist.
func (r *RunRepo) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, seed, started_at, ended_at, spawned, destroyed, escaped, strikes
		 FROM runs WHERE id = $1`, id,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Run])
}

// Entries returns a run's journal in time order.
func (r *RunRepo) Entries(ctx context.Context, id uuid.UUID) ([]JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT kind, entity_id, x, y, radius, count, score, level, weapon, at
		 FROM engagement_journal WHERE run_id = $1 ORDER BY at, id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("journal entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (JournalEntry, error) {
		var e JournalEntry
		err := row.Scan(&e.Kind, &e.EntityID, &e.X, &e.Y, &e.Radius, &e.Count, &e.Score, &e.Level, &e.Weapon, &e.At)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return entries, nil
}
