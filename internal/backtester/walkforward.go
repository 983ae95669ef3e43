// Package backtester provides the in-sample / out-of-sample split.
package backtester

// WalkForwardSplit divides a return series by position into an in-sample
// head and an out-of-sample tail.
type WalkForwardSplit struct {
	InSampleRatio float64
}

// NewWalkForwardSplit creates a split with the given in-sample fraction
func NewWalkForwardSplit(ratio float64) *WalkForwardSplit {
	return &WalkForwardSplit{InSampleRatio: ratio}
}

// Split returns the first int(n*ratio) returns and the remainder.
func (wf *WalkForwardSplit) Split(returns []float64) (inSample, outOfSample []float64) {
	cut := int(float64(len(returns)) * wf.InSampleRatio)
	if cut < 0 {
		cut = 0
	}
	if cut > len(returns) {
		cut = len(returns)
	}
	return returns[:cut], returns[cut:]
}
