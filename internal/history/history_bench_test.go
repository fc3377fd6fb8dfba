package history

import (
	"path/filepath"
	"testing"
	"time"
)

func benchStore(b *testing.B) *Store {
	b.Helper()
	store, err := Open(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	b.Cleanup(func() { store.Close() })
	return store
}

func benchSnapshot(i int) Snapshot {
	return Snapshot{
		Timestamp:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Generation:       uint64(i + 1),
		FileCount:        40,
		SymbolCount:      1200 + i,
		EdgeCount:        3400 + i,
		ParseErrors:      i % 3,
		UndefinedSymbols: i % 5,
	}
}

func BenchmarkStoreSaveSnapshot(b *testing.B) {
	store := benchStore(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.SaveSnapshot(benchSnapshot(i)); err != nil {
			b.Fatalf("save snapshot: %v", err)
		}
	}
}

func BenchmarkStoreSnapshots(b *testing.B) {
	store := benchStore(b)
	for i := 0; i < 500; i++ {
		if err := store.SaveSnapshot(benchSnapshot(i)); err != nil {
			b.Fatalf("save snapshot: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Snapshots(time.Time{}); err != nil {
			b.Fatalf("load snapshots: %v", err)
		}
	}
}

func BenchmarkBuildTrendReport(b *testing.B) {
	snapshots := make([]Snapshot, 0, 500)
	for i := 0; i < 500; i++ {
		snapshots = append(snapshots, benchSnapshot(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildTrendReport(snapshots, time.Hour); err != nil {
			b.Fatalf("build report: %v", err)
		}
	}
}
