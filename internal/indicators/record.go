// Package indicators holds the socio-economic indicator record shared by the
// scoring and forecasting packages.
package indicators

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
)

// Field names one measured indicator of a Record.
type Field string

const (
	GDPGrowth           Field = "gdp_growth"
	Inflation           Field = "inflation"
	Unemployment        Field = "unemployment"
	DomesticCredit      Field = "domestic_credit"
	Exports             Field = "exports"
	Imports             Field = "imports"
	GDPPerCapita        Field = "gdp_per_capita"
	GrossFixedCapital   Field = "gross_fixed_capital"
	CerealYield         Field = "cereal_yield"
	FoodImports         Field = "food_imports"
	FoodProductionIndex Field = "food_production_index"
	PopulationGrowth    Field = "population_growth"
)

var allFields = []Field{
	GDPGrowth, Inflation, Unemployment, DomesticCredit, Exports, Imports,
	GDPPerCapita, GrossFixedCapital, CerealYield, FoodImports, FoodProductionIndex, PopulationGrowth,
}

// long names as they appear in World Development Indicators exports
var longNames = map[Field]string{
	GDPGrowth:           "GDP growth (annual %)",
	Inflation:           "Inflation, consumer prices (annual %)",
	Unemployment:        "Unemployment, total (% of total labor force)",
	DomesticCredit:      "Domestic credit to private sector (% of GDP)",
	Exports:             "Exports of goods and services (% of GDP)",
	Imports:             "Imports of goods and services (% of GDP)",
	GDPPerCapita:        "GDP per capita (current US$)",
	GrossFixedCapital:   "Gross fixed capital formation (% of GDP)",
	CerealYield:         "Cereal yield (kg per hectare)",
	FoodImports:         "Food imports (% of merchandise imports)",
	FoodProductionIndex: "Food production index (2014-2016 = 100)",
	PopulationGrowth:    "Population growth (annual %)",
}

// Fields returns every measured field in declaration order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// LongName returns the human readable indicator name.
func (f Field) LongName() string {
	if n, ok := longNames[f]; ok {
		return n
	}
	return string(f)
}

// ParseField resolves a short key or long name, case-insensitively.
func ParseField(s string) (Field, bool) {
	s = strings.TrimSpace(s)
	for _, f := range allFields {
		if strings.EqualFold(s, string(f)) || strings.EqualFold(s, longNames[f]) {
			return f, true
		}
	}
	return "", false
}

// Record is one entity at one period. A nil field is unknown, never zero.
type Record struct {
	Entity string `json:"entity" validate:"required"`
	Period int    `json:"period"`

	GDPGrowth           *float64 `json:"gdp_growth,omitempty"`
	Inflation           *float64 `json:"inflation,omitempty"`
	Unemployment        *float64 `json:"unemployment,omitempty"`
	DomesticCredit      *float64 `json:"domestic_credit,omitempty"`
	Exports             *float64 `json:"exports,omitempty"`
	Imports             *float64 `json:"imports,omitempty"`
	GDPPerCapita        *float64 `json:"gdp_per_capita,omitempty"`
	GrossFixedCapital   *float64 `json:"gross_fixed_capital,omitempty"`
	CerealYield         *float64 `json:"cereal_yield,omitempty"`
	FoodImports         *float64 `json:"food_imports,omitempty"`
	FoodProductionIndex *float64 `json:"food_production_index,omitempty"`
	PopulationGrowth    *float64 `json:"population_growth,omitempty"`
}

func (r *Record) slot(f Field) **float64 {
	switch f {
	case GDPGrowth:
		return &r.GDPGrowth
	case Inflation:
		return &r.Inflation
	case Unemployment:
		return &r.Unemployment
	case DomesticCredit:
		return &r.DomesticCredit
	case Exports:
		return &r.Exports
	case Imports:
		return &r.Imports
	case GDPPerCapita:
		return &r.GDPPerCapita
	case GrossFixedCapital:
		return &r.GrossFixedCapital
	case CerealYield:
		return &r.CerealYield
	case FoodImports:
		return &r.FoodImports
	case FoodProductionIndex:
		return &r.FoodProductionIndex
	case PopulationGrowth:
		return &r.PopulationGrowth
	}
	return nil
}

// Value returns the field value and whether it is present.
func (r Record) Value(f Field) (float64, bool) {
	p := r.slot(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Has reports whether the field is present.
func (r Record) Has(f Field) bool {
	_, ok := r.Value(f)
	return ok
}

// Set stores v in field f. Unknown fields are ignored.
func (r *Record) Set(f Field, v float64) {
	if p := r.slot(f); p != nil {
		*p = &v
	}
}

// Clear marks field f as absent.
func (r *Record) Clear(f Field) {
	if p := r.slot(f); p != nil {
		*p = nil
	}
}

// With returns a copy of r with field f set to v. r is not modified.
func (r Record) With(f Field, v float64) Record {
	out := r.Clone()
	out.Set(f, v)
	return out
}

// Clone returns a deep copy; the copy shares no field pointers with r.
func (r Record) Clone() Record {
	out := Record{Entity: r.Entity, Period: r.Period}
	for _, f := range allFields {
		if v, ok := r.Value(f); ok {
			out.Set(f, v)
		}
	}
	return out
}

// Present lists the fields that carry a value, in declaration order.
func (r Record) Present() []Field {
	var out []Field
	for _, f := range allFields {
		if r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Validate rejects records the core must never see: a blank entity or a
// non-finite field value.
func (r Record) Validate() error {
	problems := map[string]string{}
	if strings.TrimSpace(r.Entity) == "" {
		problems["entity"] = "entity is required"
	}
	for _, f := range allFields {
		if v, ok := r.Value(f); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
			problems[string(f)] = fmt.Sprintf("%s must be a finite number", f)
		}
	}
	if len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap(fmt.Sprintf("invalid record for %q", r.Entity), problems)
	}
	return nil
}

// ValidateAll validates every record and reports the first failure with its index.
func ValidateAll(records []Record) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			appErr := apperrors.ToAppError(err)
			appErr.ErrBuilder = appErr.ErrBuilder.WithMsg(fmt.Sprintf("record %d: %s", i, appErr.ErrBuilder.Msg))
			return appErr
		}
	}
	return nil
}

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 {
	return &v
}
