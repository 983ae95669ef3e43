// Package backtester provides bootstrap resampling for robustness estimation.
package backtester

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/ianF57/robot/pkg/types"
	"github.com/ianF57/robot/pkg/utils"
)

// BootstrapSampler estimates how much a return series' mean moves across
// resamples of itself.
type BootstrapSampler struct {
	Samples int
}

// NewBootstrapSampler creates a sampler drawing the given number of resamples
func NewBootstrapSampler(samples int) *BootstrapSampler {
	if samples <= 1 {
		samples = 100
	}
	return &BootstrapSampler{Samples: samples}
}

// Sensitivity draws resamples with replacement, each as long as returns, and
// reports 10000x the population standard deviation of their means.
func (bs *BootstrapSampler) Sensitivity(returns []float64, rng *rand.Rand) float64 {
	n := len(returns)
	if n == 0 {
		return 0
	}

	means := make([]float64, bs.Samples)
	for i := range means {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += returns[rng.Intn(n)]
		}
		means[i] = sum / float64(n)
	}

	return utils.PopulationStdDev(means) * 10000
}

// DeriveSeed builds a reproducible seed from the candidate identity and the
// window it is evaluated on, mixed with a configured base seed.
func DeriveSeed(def types.SignalDefinition, bars []types.OHLCV, base int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(def.Name))
	h.Write([]byte{0})
	h.Write([]byte(def.Version))

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(bars)))
	h.Write(buf[:])
	if len(bars) > 0 {
		binary.LittleEndian.PutUint64(buf[:], uint64(bars[len(bars)-1].Timestamp.UnixNano()))
		h.Write(buf[:])
	}

	return int64(h.Sum64()) ^ base
}
