// Package history persists per-generation model statistics to sqlite so
// diagnostic trends survive process restarts. Only aggregate counts are
// stored, never the model itself.
package history

import "time"

const SchemaVersion = 1

type Snapshot struct {
	SchemaVersion   int       `json:"schema_version"`
	Timestamp       time.Time `json:"timestamp"`
	Generation      uint64    `json:"generation"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp,omitempty"`

	FileCount   int `json:"file_count"`
	SymbolCount int `json:"symbol_count"`
	EdgeCount   int `json:"edge_count"`

	ParseErrors       int `json:"parse_errors"`
	Duplicates        int `json:"duplicates"`
	UndefinedSymbols  int `json:"undefined_symbols"`
	Cycles            int `json:"cycles"`
	UnresolvedImports int `json:"unresolved_imports"`
	AmbiguousNames    int `json:"ambiguous_names"`
	AliasCycles       int `json:"alias_cycles"`
}

// Total sums every diagnostic category in the snapshot.
func (s Snapshot) Total() int {
	return s.ParseErrors + s.Duplicates + s.UndefinedSymbols + s.Cycles +
		s.UnresolvedImports + s.AmbiguousNames + s.AliasCycles
}

type TrendPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Generation uint64    `json:"generation"`
	CommitHash string    `json:"commit_hash,omitempty"`

	FileCount   int `json:"file_count"`
	SymbolCount int `json:"symbol_count"`
	EdgeCount   int `json:"edge_count"`
	Total       int `json:"total_diagnostics"`

	DeltaFiles   int `json:"delta_files"`
	DeltaSymbols int `json:"delta_symbols"`
	DeltaEdges   int `json:"delta_edges"`
	DeltaTotal   int `json:"delta_diagnostics"`

	SymbolGrowthPct float64 `json:"symbol_growth_pct"`
	AvgDiagnostics  float64 `json:"avg_diagnostics"`
	WindowHours     float64 `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	ScanCount     int          `json:"scan_count"`
	Points        []TrendPoint `json:"points"`
}
