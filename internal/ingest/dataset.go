package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/cache"
	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/forecast"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
)

var datasetName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Dataset serves the CSV files of one directory by name, "wdi" reading
// <dir>/wdi.csv. Parsed files are cached until the TTL lapses or the name is
// invalidated.
type Dataset struct {
	dir   string
	cache *cache.Cache[[]indicators.Record]
}

// NewDataset creates a dataset over dir.
func NewDataset(dir string, ttl time.Duration) *Dataset {
	return &Dataset{
		dir:   dir,
		cache: cache.New[[]indicators.Record](ttl),
	}
}

// Cache exposes the parsed-file cache, for stats and the janitor.
func (d *Dataset) Cache() *cache.Cache[[]indicators.Record] {
	return d.cache
}

func cacheKey(name string) string {
	return "dataset:" + name
}

// Records returns every row of the named file. Callers must not modify the
// returned records' values.
func (d *Dataset) Records(name string) ([]indicators.Record, error) {
	if !datasetName.MatchString(name) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid dataset name %q", name))
	}

	if recs, ok := d.cache.Get(cacheKey(name)); ok {
		return recs, nil
	}

	path := filepath.Join(d.dir, name+".csv")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("dataset %q", name))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open dataset", err)
	}
	defer apperrors.SafeClose(f, path)

	start := time.Now()
	recs, err := ParseCSV(f)
	if err != nil {
		return nil, apperrors.WrapError(err, "dataset %q", name)
	}

	d.cache.Set(cacheKey(name), recs)
	slog.Info("Dataset loaded",
		"dataset", name,
		"records", len(recs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return recs, nil
}

// Invalidate drops the cached copy of name so the next read reparses it.
func (d *Dataset) Invalidate(name string) bool {
	n := d.cache.Invalidate(cacheKey(name))
	slog.Info("Dataset invalidated", "dataset", name, "dropped", n)
	return n > 0
}

// Names lists the datasets available in the directory, sorted.
func (d *Dataset) Names() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list datasets", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		if name := strings.TrimSuffix(e.Name(), ".csv"); datasetName.MatchString(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Entities returns the distinct entities of name in first-appearance order.
func (d *Dataset) Entities(name string) ([]string, error) {
	recs, err := d.Records(name)
	if err != nil {
		return nil, err
	}
	return Entities(recs), nil
}

// History returns the observed series of one indicator for one entity.
func (d *Dataset) History(name, entity string, field indicators.Field) ([]forecast.Point, error) {
	recs, err := d.Records(name)
	if err != nil {
		return nil, err
	}
	return History(recs, entity, field)
}

// Entities returns the distinct entities of records in first-appearance order.
func Entities(records []indicators.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Entity] {
			seen[r.Entity] = true
			out = append(out, r.Entity)
		}
	}
	return out
}

// History extracts entity's values of field ordered by period. Rows without
// the field are skipped; a repeated period keeps its first value.
func History(records []indicators.Record, entity string, field indicators.Field) ([]forecast.Point, error) {
	found := false
	seen := make(map[int]bool)
	points := []forecast.Point{}
	for _, r := range records {
		if r.Entity != entity {
			continue
		}
		found = true
		v, ok := r.Value(field)
		if !ok || seen[r.Period] {
			continue
		}
		seen[r.Period] = true
		points = append(points, forecast.Point{Period: r.Period, Value: v})
	}
	if !found {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("entity %q", entity))
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}
