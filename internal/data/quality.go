// Package data provides integrity checks for price windows.
// Out-of-order timestamps and non-positive closes make a window unusable;
// OHLC inconsistencies and repeated timestamps are reported as warnings.
package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/ianF57/robot/pkg/types"
	"go.uber.org/zap"
)

// ErrInvalidPrice is returned for windows containing a non-positive close
var ErrInvalidPrice = errors.New("window contains a non-positive close")

// Issue severities
const (
	SeverityCritical = "critical"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Issue types
const (
	IssueOutOfOrder       = "OUT_OF_ORDER"
	IssueInvalidPrice     = "INVALID_PRICE"
	IssueOHLCInconsistent = "OHLC_INCONSISTENT"
	IssueDuplicate        = "DUPLICATE_TIMESTAMP"
)

// DataIssue represents a data quality problem
type DataIssue struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Message   string    `json:"message"`
	BarIndex  int       `json:"bar_index"`
}

// QualityReport summarizes a window's integrity
type QualityReport struct {
	Symbol    string      `json:"symbol"`
	TotalBars int         `json:"total_bars"`
	Issues    []DataIssue `json:"issues"`
	IsUsable  bool        `json:"is_usable"`
}

// Err returns the sentinel for the first critical issue, or nil
func (r *QualityReport) Err() error {
	for _, issue := range r.Issues {
		if issue.Severity != SeverityCritical {
			continue
		}
		switch issue.Type {
		case IssueOutOfOrder:
			return fmt.Errorf("%w: bar %d", types.ErrUnorderedWindow, issue.BarIndex)
		case IssueInvalidPrice:
			return fmt.Errorf("%w: bar %d", ErrInvalidPrice, issue.BarIndex)
		}
	}
	return nil
}

// WindowValidator checks price windows before they enter the pipeline
type WindowValidator struct {
	logger *zap.Logger
}

// NewWindowValidator creates a new validator
func NewWindowValidator(logger *zap.Logger) *WindowValidator {
	return &WindowValidator{logger: logger}
}

// Validate runs all checks on the window
func (v *WindowValidator) Validate(bars []types.OHLCV, symbol string) *QualityReport {
	issues := make([]DataIssue, 0)
	issues = append(issues, v.checkChronologicalOrder(bars, symbol)...)
	issues = append(issues, v.checkPrices(bars, symbol)...)
	issues = append(issues, v.checkOHLCConsistency(bars, symbol)...)
	issues = append(issues, v.checkDuplicates(bars, symbol)...)

	return &QualityReport{
		Symbol:    symbol,
		TotalBars: len(bars),
		Issues:    issues,
		IsUsable:  !hasCriticalIssues(issues),
	}
}

// checkChronologicalOrder flags bars earlier than their predecessor
func (v *WindowValidator) checkChronologicalOrder(bars []types.OHLCV, symbol string) []DataIssue {
	var issues []DataIssue
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			issues = append(issues, DataIssue{
				Type:      IssueOutOfOrder,
				Severity:  SeverityCritical,
				Timestamp: bars[i].Timestamp,
				Symbol:    symbol,
				Message:   "bar is out of chronological order",
				BarIndex:  i,
			})
		}
	}
	return issues
}

// checkPrices flags closes that cannot produce a return
func (v *WindowValidator) checkPrices(bars []types.OHLCV, symbol string) []DataIssue {
	var issues []DataIssue
	for i, bar := range bars {
		if bar.Close <= 0 {
			issues = append(issues, DataIssue{
				Type:      IssueInvalidPrice,
				Severity:  SeverityCritical,
				Timestamp: bar.Timestamp,
				Symbol:    symbol,
				Message:   fmt.Sprintf("non-positive close %g", bar.Close),
				BarIndex:  i,
			})
		}
	}
	return issues
}

// checkOHLCConsistency verifies Low <= Open, Close <= High
func (v *WindowValidator) checkOHLCConsistency(bars []types.OHLCV, symbol string) []DataIssue {
	var issues []DataIssue
	for i, bar := range bars {
		if bar.High < bar.Low || bar.High < bar.Close || bar.High < bar.Open ||
			bar.Low > bar.Close || bar.Low > bar.Open {
			issues = append(issues, DataIssue{
				Type:      IssueOHLCInconsistent,
				Severity:  SeverityMedium,
				Timestamp: bar.Timestamp,
				Symbol:    symbol,
				Message: fmt.Sprintf("inconsistent bar (O:%g H:%g L:%g C:%g)",
					bar.Open, bar.High, bar.Low, bar.Close),
				BarIndex: i,
			})
		}
	}
	return issues
}

// checkDuplicates finds repeated timestamps
func (v *WindowValidator) checkDuplicates(bars []types.OHLCV, symbol string) []DataIssue {
	var issues []DataIssue
	seen := make(map[int64]int)
	for i, bar := range bars {
		ts := bar.Timestamp.UnixNano()
		if first, exists := seen[ts]; exists {
			issues = append(issues, DataIssue{
				Type:      IssueDuplicate,
				Severity:  SeverityLow,
				Timestamp: bar.Timestamp,
				Symbol:    symbol,
				Message:   fmt.Sprintf("duplicate timestamp (also at index %d)", first),
				BarIndex:  i,
			})
			continue
		}
		seen[ts] = i
	}
	return issues
}

func hasCriticalIssues(issues []DataIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
