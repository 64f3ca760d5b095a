package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/forecast"
)

const (
	// MaxBatchRecords bounds one batch or stress request.
	MaxBatchRecords = 10000
	// MaxHorizon bounds how far a forecast may extrapolate.
	MaxHorizon = 50
	// DefaultHorizon applies when a forecast request leaves horizon unset.
	DefaultHorizon = 5
)

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	// report JSON names instead of Go field names
	requestValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// batchRequest is the body of POST /api/batch/:domain.
type batchRequest struct {
	Records []map[string]any `json:"records" validate:"required,min=1,max=10000"`
}

// forecastRequest is the body of POST /api/forecast. Entity and Indicator
// only label the log entry.
type forecastRequest struct {
	History   []forecast.Point `json:"history" validate:"max=1000"`
	Horizon   int              `json:"horizon" validate:"gte=0,lte=50"`
	Entity    string           `json:"entity" validate:"max=200"`
	Indicator string           `json:"indicator" validate:"max=200"`
}

// stressRequest is the body of POST /api/stress/:domain.
type stressRequest struct {
	Records []map[string]any `json:"records" validate:"required,min=1,max=10000"`
	Field   string           `json:"field" validate:"required"`
	Factors []float64        `json:"factors" validate:"required,min=1,max=50,dive,gt=0"`
}

// datasetForecastQuery is the query of GET /api/datasets/:name/forecast.
type datasetForecastQuery struct {
	Entity    string `form:"entity" json:"entity" validate:"required"`
	Indicator string `form:"indicator" json:"indicator" validate:"required"`
	Horizon   int    `form:"horizon" json:"horizon" validate:"gte=0,lte=50"`
}

// resultsQuery is the query of GET /api/results/:entity.
type resultsQuery struct {
	Domain string `form:"domain" json:"domain" validate:"omitempty,oneof=economic food"`
	Limit  int    `form:"limit" json:"limit" validate:"gte=0,lte=500"`
}

// validateRequest runs the struct tags of req and turns failures into one
// validation error with an entry per offending field.
func validateRequest(req any) error {
	err := requestValidate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid request", err)
	}

	problems := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		problems[fieldPath(fe)] = describe(fe)
	}
	return apperrors.NewValidationErrorWithMap("invalid request", problems)
}

// fieldPath drops the struct name from the namespace: "factors[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("allows at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
