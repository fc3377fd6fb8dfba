package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns recorded snapshots into per-point deltas and a
// moving average of total diagnostics over the given window.
func BuildTrendReport(snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:   current.Timestamp,
			Generation:  current.Generation,
			CommitHash:  current.CommitHash,
			FileCount:   current.FileCount,
			SymbolCount: current.SymbolCount,
			EdgeCount:   current.EdgeCount,
			Total:       current.Total(),
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaSymbols = current.SymbolCount - prev.SymbolCount
			point.DeltaEdges = current.EdgeCount - prev.EdgeCount
			point.DeltaTotal = current.Total() - prev.Total()
			if prev.SymbolCount > 0 {
				point.SymbolGrowthPct = (float64(point.DeltaSymbols) / float64(prev.SymbolCount)) * 100
			}
		}

		point.AvgDiagnostics = round2(movingAverage(snapshots, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		ScanCount:     len(points),
		Points:        points,
	}, nil
}

func movingAverage(snapshots []Snapshot, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(snapshots[index].Total())
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	total := 0
	count := 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		total += snapshots[i].Total()
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
