// journalexport reads recorded runs from the engagement journal.
//
// Usage:
//
//	go run ./cmd/journalexport <command> [-dsn url] [-limit n] [-run id] [-out path]
//
// Commands: runs, dump
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/skyguard/radarsim/internal/config"
	"github.com/skyguard/radarsim/internal/persist"
)

// ---------------------------------------------------------------------------
// YAML output structs
// ---------------------------------------------------------------------------

type runDumpYAML struct {
	Run     runYAML     `yaml:"run"`
	Entries []entryYAML `yaml:"entries"`
}

type runYAML struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Seed      int64  `yaml:"seed"`
	StartedAt string `yaml:"started_at"`
	EndedAt   string `yaml:"ended_at,omitempty"`
	Spawned   int    `yaml:"spawned"`
	Destroyed int    `yaml:"destroyed"`
	Escaped   int    `yaml:"escaped"`
	Strikes   int    `yaml:"strikes"`
}

type entryYAML struct {
	Kind     string  `yaml:"kind"`
	OffsetMs int64   `yaml:"offset_ms"` // since run start
	EntityID int32   `yaml:"entity_id,omitempty"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Radius   float64 `yaml:"radius,omitempty"`
	Count    int     `yaml:"count,omitempty"`
	Score    float64 `yaml:"score,omitempty"`
	Level    int     `yaml:"level,omitempty"`
	Weapon   string  `yaml:"weapon,omitempty"`
}

func printUsage() {
	fmt.Println("Usage: journalexport <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  runs   List recorded runs, newest first")
	fmt.Println("  dump   Write one run and its journal as YAML (-run id, -out path)")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	fset := flag.NewFlagSet(cmd, flag.ExitOnError)
	dsn := fset.String("dsn", "", "PostgreSQL url (default: database.dsn from the config file)")
	limit := fset.Int("limit", 20, "runs to list, 0 for all")
	runID := fset.String("run", "", "run id to dump (default: newest run)")
	out := fset.String("out", "", "output file (default: stdout)")
	_ = fset.Parse(os.Args[2:])

	commands := map[string]func(context.Context, *persist.RunRepo) error{
		"runs": func(ctx context.Context, repo *persist.RunRepo) error {
			return listRuns(ctx, repo, *limit, os.Stdout)
		},
		"dump": func(ctx context.Context, repo *persist.RunRepo) error {
			return dumpRun(ctx, repo, *runID, *out)
		},
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err := run(*dsn, fn); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(dsn string, fn func(context.Context, *persist.RunRepo) error) error {
	cfg, err := config.Load(config.Path())
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Defaults(), nil
	}
	if err != nil {
		return err
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if cfg.Database.DSN == "" {
		return errors.New("no database configured: pass -dsn or set database.dsn")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db, err := persist.NewDB(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, persist.NewRunRepo(db))
}

func listRuns(ctx context.Context, repo *persist.RunRepo, limit int, w io.Writer) error {
	runs, err := repo.List(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-36s  %-19s  %8s  %8s  %8s  %s\n", "ID", "STARTED", "SPAWNED", "KILLED", "ESCAPED", "NAME")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-19s  %8d  %8d  %8d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Spawned, r.Destroyed, r.Escaped, r.Name)
	}
	return nil
}

func dumpRun(ctx context.Context, repo *persist.RunRepo, id, outPath string) error {
	var run persist.Run
	if id == "" {
		runs, err := repo.List(ctx, 1)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return errors.New("journal has no runs")
		}
		run = runs[0]
	} else {
		rid, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("bad run id %q: %w", id, err)
		}
		if run, err = repo.Get(ctx, rid); err != nil {
			return fmt.Errorf("run %s: %w", rid, err)
		}
	}

	entries, err := repo.Entries(ctx, run.ID)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	fmt.Fprintf(w, "# Engagement journal, run %s (%d entries)\n", run.ID, len(entries))
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDump(run, entries)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Printf("Wrote %d journal entries to %s\n", len(entries), outPath)
	}
	return nil
}

func toDump(run persist.Run, entries []persist.JournalEntry) runDumpYAML {
	d := runDumpYAML{
		Run: runYAML{
			ID:        run.ID.String(),
			Name:      run.Name,
			Seed:      run.Seed,
			StartedAt: run.StartedAt.UTC().Format(time.RFC3339Nano),
			Spawned:   run.Spawned,
			Destroyed: run.Destroyed,
			Escaped:   run.Escaped,
			Strikes:   run.Strikes,
		},
		Entries: make([]entryYAML, 0, len(entries)),
	}
	if run.EndedAt != nil {
		d.Run.EndedAt = run.EndedAt.UTC().Format(time.RFC3339Nano)
	}
	for _, e := range entries {
		d.Entries = append(d.Entries, entryYAML{
			Kind:     e.Kind,
			OffsetMs: e.At.Sub(run.StartedAt).Milliseconds(),
			EntityID: e.EntityID,
			X:        e.X,
			Y:        e.Y,
			Radius:   e.Radius,
			Count:    e.Count,
			Score:    e.Score,
			Level:    e.Level,
			Weapon:   e.Weapon,
		})
	}
	return d
}
