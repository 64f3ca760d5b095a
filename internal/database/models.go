package database

import (
	"time"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/analysis"
	"github.com/google/uuid"
)

// StoredResult is one persisted CrisisResult of a batch run.
type StoredResult struct {
	ID       string `json:"id"`
	RunID    string `json:"run_id"`
	Position int    `json:"position"`
	analysis.CrisisResult
	CreatedAt time.Time `json:"created_at"`
}

// Run is every result saved under one run ID, in saved order.
type Run struct {
	ID        string          `json:"run_id"`
	Domain    analysis.Domain `json:"domain"`
	CreatedAt time.Time       `json:"created_at"`
	Results   []StoredResult  `json:"results"`
}

// NewRunID returns a fresh batch run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// NewStoredResult wraps r for insertion at position within runID.
func NewStoredResult(runID string, position int, r analysis.CrisisResult, now time.Time) StoredResult {
	return StoredResult{
		ID:           uuid.New().String(),
		RunID:        runID,
		Position:     position,
		CrisisResult: r,
		CreatedAt:    now,
	}
}
