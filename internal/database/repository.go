package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/analysis"
	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/goccy/go-json"
)

// DefaultListLimit caps ListByEntity when no positive limit is given.
const DefaultListLimit = 50

// Repository handles result persistence
type Repository struct {
	db  *DB
	now func() time.Time
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// SaveRun stores results under runID in one transaction, keeping their order.
func (r *Repository) SaveRun(ctx context.Context, runID string, results []analysis.CrisisResult) ([]StoredResult, error) {
	insert, err := r.db.GetPreparedStatement(stmtInsertResult)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.StmtContext(ctx, insert)
	defer stmt.Close()

	now := r.now().UTC()
	stored := make([]StoredResult, 0, len(results))
	for i, res := range results {
		row := NewStoredResult(runID, i, res, now)

		factors, err := json.Marshal(row.TopFactors)
		if err != nil {
			return nil, fmt.Errorf("failed to encode top factors for %s: %w", res.Entity, err)
		}

		if _, err := stmt.ExecContext(ctx,
			row.ID, row.RunID, row.Position, string(row.Domain), row.Entity, row.Period,
			row.Score, string(row.Classification), string(factors), row.Evaluated, row.Neutral, row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert result for %s: %w", res.Entity, err)
		}
		stored = append(stored, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run %s: %w", runID, err)
	}
	return stored, nil
}

// ListByEntity returns the newest stored results for entity. An empty domain
// matches every domain.
func (r *Repository) ListByEntity(ctx context.Context, entity string, domain analysis.Domain, limit int) ([]StoredResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	stmt, err := r.db.GetPreparedStatement(stmtListByEntity)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, entity, string(domain), string(domain), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for %s: %w", entity, err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// LatestRun returns the most recently saved run for domain.
func (r *Repository) LatestRun(ctx context.Context, domain analysis.Domain) (*Run, error) {
	latest, err := r.db.GetPreparedStatement(stmtLatestRunID)
	if err != nil {
		return nil, err
	}

	var runID string
	err = latest.QueryRowContext(ctx, string(domain)).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s run", domain))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest %s run: %w", domain, err)
	}

	list, err := r.db.GetPreparedStatement(stmtListByRun)
	if err != nil {
		return nil, err
	}
	rows, err := list.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}

	run := &Run{ID: runID, Domain: domain, Results: results}
	if len(results) > 0 {
		run.CreatedAt = results[0].CreatedAt
	}
	return run, nil
}

func scanResults(rows *sql.Rows) ([]StoredResult, error) {
	out := []StoredResult{}
	for rows.Next() {
		var (
			row           StoredResult
			domain, class string
			factors       string
		)
		if err := rows.Scan(
			&row.ID, &row.RunID, &row.Position, &domain, &row.Entity, &row.Period,
			&row.Score, &class, &factors, &row.Evaluated, &row.Neutral, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		row.Domain = analysis.Domain(domain)
		row.Classification = analysis.Classification(class)

		if err := json.Unmarshal([]byte(factors), &row.TopFactors); err != nil {
			return nil, fmt.Errorf("failed to decode top factors of %s: %w", row.ID, err)
		}
		if row.TopFactors == nil {
			row.TopFactors = []analysis.Factor{}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return out, nil
}
