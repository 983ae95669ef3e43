// Package backtester provides the friction model applied to strategy returns.
package backtester

import "math"

// FrictionModel charges transaction cost and slippage in proportion to the
// magnitude of every period's return rather than per trade.
type FrictionModel struct {
	TransactionCostBps float64
	SlippageBps        float64
}

// NewFrictionModel creates a friction model from basis-point costs
func NewFrictionModel(transactionCostBps, slippageBps float64) *FrictionModel {
	return &FrictionModel{
		TransactionCostBps: transactionCostBps,
		SlippageBps:        slippageBps,
	}
}

// Rate returns the combined friction as a fraction
func (f *FrictionModel) Rate() float64 {
	return (f.TransactionCostBps + f.SlippageBps) / 10000
}

// Apply returns the returns net of friction. The input is not modified.
func (f *FrictionModel) Apply(returns []float64) []float64 {
	rate := f.Rate()
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - math.Abs(r)*rate
	}
	return out
}
