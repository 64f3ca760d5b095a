// Package ingest turns indicator CSV exports into records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
)

var (
	entityColumns = []string{"entity", "country", "country name", "country_name"}
	periodColumns = []string{"period", "year", "time"}
)

// Periods are years; anything outside this range is a data error.
const (
	MinPeriod = -9999
	MaxPeriod = 9999
)

// cells meaning "no value"
var missingMarkers = map[string]bool{"": true, "..": true}

type column struct {
	index int
	field indicators.Field
}

type layout struct {
	entity int
	period int
	fields []column
}

// ParseCSV reads one record per data row. The header needs an entity and a
// period column; any other column naming a field by key, long name or
// camelCase key is read, the rest ignored. Empty cells and ".." are absent.
func ParseCSV(r io.Reader) ([]indicators.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewValidationError("csv input is empty")
	}
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable csv header", err)
	}

	cols, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	var records []indicators.Record
	for row := 2; ; row++ {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("row %d: malformed csv", row), err)
		}
		if blankLine(line) {
			continue
		}

		rec, err := cols.record(row, header, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func resolveHeader(header []string) (layout, error) {
	l := layout{entity: -1, period: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		switch {
		case l.entity < 0 && slices.Contains(entityColumns, name):
			l.entity = i
		case l.period < 0 && slices.Contains(periodColumns, name):
			l.period = i
		default:
			if f, ok := matchField(raw); ok {
				l.fields = append(l.fields, column{index: i, field: f})
			}
		}
	}

	problems := map[string]string{}
	if l.entity < 0 {
		problems["entity"] = "header needs an entity or country column"
	}
	if l.period < 0 {
		problems["period"] = "header needs a period or year column"
	}
	if len(problems) > 0 {
		return l, apperrors.NewValidationErrorWithMap("invalid csv header", problems)
	}
	return l, nil
}

func (l layout) record(row int, header, line []string) (indicators.Record, error) {
	rec := indicators.Record{Entity: strings.TrimSpace(cell(line, l.entity))}
	if rec.Entity == "" {
		return rec, apperrors.NewValidationErrorWithMap(fmt.Sprintf("row %d", row),
			map[string]string{header[l.entity]: "entity is required"})
	}

	period, err := strconv.Atoi(strings.TrimSpace(cell(line, l.period)))
	if err != nil {
		return rec, apperrors.NewValidationErrorWithMap(fmt.Sprintf("row %d", row),
			map[string]string{header[l.period]: fmt.Sprintf("period %q is not an integer", cell(line, l.period))})
	}
	if period < MinPeriod || period > MaxPeriod {
		return rec, apperrors.NewValidationErrorWithMap(fmt.Sprintf("row %d", row),
			map[string]string{header[l.period]: fmt.Sprintf("period must be between %d and %d", MinPeriod, MaxPeriod)})
	}
	rec.Period = period

	for _, col := range l.fields {
		raw := strings.TrimSpace(cell(line, col.index))
		if missingMarkers[raw] {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return rec, apperrors.NewValidationErrorWithMap(fmt.Sprintf("row %d", row),
				map[string]string{header[col.index]: fmt.Sprintf("%q is not a finite number", raw)})
		}
		rec.Set(col.field, v)
	}
	return rec, nil
}

// matchField accepts "gdp_growth", "GDP growth (annual %)" and "gdpGrowth".
func matchField(name string) (indicators.Field, bool) {
	if f, ok := indicators.ParseField(name); ok {
		return f, true
	}
	squashed := squash(name)
	for _, f := range indicators.Fields() {
		if squash(string(f)) == squashed {
			return f, true
		}
	}
	return "", false
}

func squash(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", " ", "", "-", "").Replace(strings.TrimSpace(s)))
}

func cell(line []string, i int) string {
	if i < len(line) {
		return line[i]
	}
	return ""
}

func blankLine(line []string) bool {
	for _, c := range line {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
