package orchestrator

import (
	"sort"
	"time"

	"github.com/ianF57/robot/pkg/types"
)

// ReplayWindow returns the last size bars stamped at or before cutoff.
// The cutoff is compared in UTC. When no bar qualifies the first size bars
// are returned instead.
func ReplayWindow(bars []types.OHLCV, cutoff time.Time, size int) []types.OHLCV {
	cutoff = cutoff.UTC()

	end := sort.Search(len(bars), func(i int) bool {
		return bars[i].Timestamp.UTC().After(cutoff)
	})

	if end == 0 {
		if size > len(bars) {
			size = len(bars)
		}
		return bars[:size]
	}

	start := end - size
	if start < 0 {
		start = 0
	}
	return bars[start:end]
}
