package types

import "errors"

var (
	// ErrUnsupportedTimeframe is returned for an unrecognised timeframe key
	ErrUnsupportedTimeframe = errors.New("unsupported timeframe")
	// ErrInsufficientHistory is returned when a window is shorter than the longest lookback
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrUnorderedWindow is returned when bar timestamps decrease
	ErrUnorderedWindow = errors.New("window timestamps are not ascending")
	// ErrNoCandidates is returned when ranking is asked to order nothing
	ErrNoCandidates = errors.New("no signal candidates")
)
