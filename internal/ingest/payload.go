package ingest

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
)

// DecodeRecord builds a record from a decoded JSON object. Keys follow the
// CSV header rules; values may be numbers, numeric strings or null (absent).
// Unknown keys are ignored. A missing period leaves it zero.
func DecodeRecord(obj map[string]any) (indicators.Record, error) {
	var rec indicators.Record
	problems := map[string]string{}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := obj[key]
		name := strings.ToLower(strings.TrimSpace(key))
		switch {
		case slices.Contains(entityColumns, name):
			s, ok := raw.(string)
			if !ok {
				problems[key] = "entity must be a string"
				continue
			}
			rec.Entity = strings.TrimSpace(s)
		case slices.Contains(periodColumns, name):
			if raw == nil {
				continue
			}
			v, err := number(raw)
			if err != nil || v != math.Trunc(v) {
				problems[key] = "period must be an integer"
				continue
			}
			if v < MinPeriod || v > MaxPeriod {
				problems[key] = fmt.Sprintf("period must be between %d and %d", MinPeriod, MaxPeriod)
				continue
			}
			rec.Period = int(v)
		default:
			f, ok := matchField(key)
			if !ok || raw == nil {
				continue
			}
			if s, isString := raw.(string); isString && missingMarkers[strings.TrimSpace(s)] {
				continue
			}
			v, err := number(raw)
			if err != nil {
				problems[key] = err.Error()
				continue
			}
			rec.Set(f, v)
		}
	}

	if rec.Entity == "" {
		if _, seen := problems["entity"]; !seen {
			problems["entity"] = "entity is required"
		}
	}
	if len(problems) > 0 {
		return rec, apperrors.NewValidationErrorWithMap("invalid record", problems)
	}
	return rec, nil
}

// DecodeRecords decodes every object, reporting the first failure by index.
func DecodeRecords(objs []map[string]any) ([]indicators.Record, error) {
	out := make([]indicators.Record, 0, len(objs))
	for i, obj := range objs {
		rec, err := DecodeRecord(obj)
		if err != nil {
			appErr := apperrors.ToAppError(err)
			appErr.ErrBuilder = appErr.ErrBuilder.WithMsg(fmt.Sprintf("record %d: %s", i, appErr.ErrBuilder.Msg))
			return nil, appErr
		}
		out = append(out, rec)
	}
	return out, nil
}

func number(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case int:
		v = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		v = parsed
	default:
		return 0, fmt.Errorf("unsupported value type %T", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value must be a finite number")
	}
	return v, nil
}
