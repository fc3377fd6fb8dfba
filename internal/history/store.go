package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot records one generation's aggregate counts. Writing the same
// timestamp and generation twice updates the row in place.
func (s *Store) SaveSnapshot(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	commitTS := ""
	if !snapshot.CommitTimestamp.IsZero() {
		commitTS = snapshot.CommitTimestamp.UTC().Format(time.RFC3339Nano)
	}

	query := `
INSERT INTO snapshots (
  schema_version, ts_utc, generation, commit_hash, commit_ts_utc,
  file_count, symbol_count, edge_count,
  parse_errors, duplicates, undefined_symbols, cycles,
  unresolved_imports, ambiguous_names, alias_cycles
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(ts_utc, generation) DO UPDATE SET
  schema_version=excluded.schema_version,
  commit_hash=excluded.commit_hash,
  commit_ts_utc=excluded.commit_ts_utc,
  file_count=excluded.file_count,
  symbol_count=excluded.symbol_count,
  edge_count=excluded.edge_count,
  parse_errors=excluded.parse_errors,
  duplicates=excluded.duplicates,
  undefined_symbols=excluded.undefined_symbols,
  cycles=excluded.cycles,
  unresolved_imports=excluded.unresolved_imports,
  ambiguous_names=excluded.ambiguous_names,
  alias_cycles=excluded.alias_cycles
`
	_, err := s.db.Exec(
		query,
		snapshot.SchemaVersion,
		snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
		snapshot.Generation,
		snapshot.CommitHash,
		commitTS,
		snapshot.FileCount,
		snapshot.SymbolCount,
		snapshot.EdgeCount,
		snapshot.ParseErrors,
		snapshot.Duplicates,
		snapshot.UndefinedSymbols,
		snapshot.Cycles,
		snapshot.UnresolvedImports,
		snapshot.AmbiguousNames,
		snapshot.AliasCycles,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Snapshots returns the recorded history since the given time, oldest
// first. A zero time returns everything.
func (s *Store) Snapshots(since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT schema_version, ts_utc, generation, commit_hash, commit_ts_utc,
       file_count, symbol_count, edge_count,
       parse_errors, duplicates, undefined_symbols, cycles,
       unresolved_imports, ambiguous_names, alias_cycles
FROM snapshots
WHERE ts_utc >= ?
ORDER BY ts_utc ASC, generation ASC
`
	sinceArg := ""
	if !since.IsZero() {
		sinceArg = since.UTC().Format(time.RFC3339Nano)
	}

	rows, err := s.db.Query(query, sinceArg)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ts, commitTS string
		if err := rows.Scan(
			&snap.SchemaVersion, &ts, &snap.Generation, &snap.CommitHash, &commitTS,
			&snap.FileCount, &snap.SymbolCount, &snap.EdgeCount,
			&snap.ParseErrors, &snap.Duplicates, &snap.UndefinedSymbols, &snap.Cycles,
			&snap.UnresolvedImports, &snap.AmbiguousNames, &snap.AliasCycles,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if snap.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", ts, err)
		}
		if commitTS != "" {
			if snap.CommitTimestamp, err = time.Parse(time.RFC3339Nano, commitTS); err != nil {
				return nil, fmt.Errorf("parse commit timestamp %q: %w", commitTS, err)
			}
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
