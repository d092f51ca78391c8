package bench

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/depthfield/xcorr"
)

// Store persists harness measurements in a SQLite database so sweeps can
// be compared across machines and revisions. Pass ":memory:" for a
// throwaway store.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the measurement database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening measurement store: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		category   TEXT NOT NULL,
		backend    TEXT NOT NULL,
		device     TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS measurements (
		run_id       TEXT NOT NULL REFERENCES runs(id),
		label        TEXT NOT NULL,
		rows         INTEGER NOT NULL,
		cols         INTEGER NOT NULL,
		tile_width   INTEGER NOT NULL,
		tile_height  INTEGER NOT NULL,
		window       INTEGER NOT NULL,
		variant      TEXT NOT NULL,
		scope        TEXT NOT NULL,
		elapsed_ms   REAL NOT NULL,
		cycles       INTEGER NOT NULL DEFAULT 0,
		instructions INTEGER NOT NULL DEFAULT 0,
		llc_misses   INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_measurements_run ON measurements(run_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// BeginRun registers a new harness run and returns its id.
func (s *Store) BeginRun(category, backend string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, category, backend, device, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, category, backend, xcorr.GetDevice().Name, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("registering run: %w", err)
	}
	return id, nil
}

// Append stores one measurement under a run.
func (s *Store) Append(runID string, rec Record) error {
	_, err := s.db.Exec(
		`INSERT INTO measurements
		 (run_id, label, rows, cols, tile_width, tile_height, window, variant, scope,
		  elapsed_ms, cycles, instructions, llc_misses, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Label, rec.Rows, rec.Cols, rec.TileWidth, rec.TileHeight,
		rec.Window, rec.Variant.String(), rec.Scope.String(), rec.ElapsedMS,
		int64(rec.HW.Cycles), int64(rec.HW.Instructions), int64(rec.HW.LLCMisses), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing measurement: %w", err)
	}
	return nil
}

// Records returns a run's measurements in insertion order.
func (s *Store) Records(runID string) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT label, rows, cols, tile_width, tile_height, window, variant, scope,
		        elapsed_ms, cycles, instructions, llc_misses
		 FROM measurements WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var variant, scope string
		var cycles, instructions, llcMisses int64
		if err := rows.Scan(&rec.Label, &rec.Rows, &rec.Cols, &rec.TileWidth, &rec.TileHeight,
			&rec.Window, &variant, &scope, &rec.ElapsedMS, &cycles, &instructions, &llcMisses); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		if rec.Variant, err = xcorr.ParseVariant(variant); err != nil {
			return nil, err
		}
		if rec.Scope, err = xcorr.ParseTimeScope(scope); err != nil {
			return nil, err
		}
		rec.HW = Counters{Cycles: uint64(cycles), Instructions: uint64(instructions), LLCMisses: uint64(llcMisses)}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RunInfo describes one registered harness run.
type RunInfo struct {
	ID        string
	Category  string
	Backend   string
	Device    string
	CreatedAt time.Time
}

// Runs lists registered runs, newest first.
func (s *Store) Runs() ([]RunInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, category, backend, device, created_at FROM runs ORDER BY rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var ri RunInfo
		if err := rows.Scan(&ri.ID, &ri.Category, &ri.Backend, &ri.Device, &ri.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, ri)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
