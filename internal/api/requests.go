package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/ianF57/robot/internal/data"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("asset", func(fl validator.FieldLevel) bool {
		return data.ValidAsset(fl.Field().String())
	})
	return v
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// DashboardRequest holds the dashboard query
type DashboardRequest struct {
	Timeframe string `default:"1h" validate:"oneof=1m 5m 1h 1d 1w"`
}

// AnalyzeRequest holds the single-asset query
type AnalyzeRequest struct {
	Asset     string `validate:"required,asset"`
	Timeframe string `default:"1h" validate:"oneof=1m 5m 1h 1d 1w"`
}

// ReplayRequest holds the replay query
type ReplayRequest struct {
	Asset     string `default:"BTCUSDT" validate:"asset"`
	Timeframe string `default:"1h" validate:"oneof=1m 5m 1h 1d 1w"`
	At        string `validate:"required"`
}

// LogsRequest holds the log listing query. The handler seeds Limit with the
// configured default before reading the query, so an explicit 0 is rejected.
type LogsRequest struct {
	Limit int `validate:"gt=0,lte=500"`
}

type timeframeDefaulter interface {
	defaultTimeframe(tf string)
}

func (r *DashboardRequest) defaultTimeframe(tf string) {
	if r.Timeframe == "" {
		r.Timeframe = tf
	}
}

func (r *AnalyzeRequest) defaultTimeframe(tf string) {
	if r.Timeframe == "" {
		r.Timeframe = tf
	}
}

func (r *ReplayRequest) defaultTimeframe(tf string) {
	if r.Timeframe == "" {
		r.Timeframe = tf
	}
}

// ReadAndValidate fills defaults into req and validates it. It returns nil
// when the request is valid.
func ReadAndValidate(ctx context.Context, req interface{}) []ValidationError {
	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return validationErrors(err)
	}
	return nil
}

func validationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   field,
			Message: errorMessage(field, fe),
		})
	}
	return out
}

func errorMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "asset":
		return fmt.Sprintf("%s must be 1-32 letters, digits or !._- characters", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 timestamp, treating naive values as UTC
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseInt(s string, dst *int) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
