// Package database persists scored batch runs in SQLite.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

// FileName is the database file created inside the data directory.
const FileName = "crisis_results.db"

// IsBusy reports SQLite lock contention, which clears once the other
// writer commits.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// DB is a pooled SQLite handle with its prepared statements.
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DefaultPoolConfig suits a single server process.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxOpenConns: 8, MaxIdleConns: 2, MaxLifetime: 5 * time.Minute}
}

// ConnectionPool records the limits applied to the sql.DB pool.
type ConnectionPool struct {
	db  *sql.DB
	cfg PoolConfig
}

// NewConnectionPool applies cfg to db.
func NewConnectionPool(db *sql.DB, cfg PoolConfig) *ConnectionPool {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	return &ConnectionPool{db: db, cfg: cfg}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.cfg.MaxOpenConns,
		"max_idle_connections": cp.cfg.MaxIdleConns,
		"max_lifetime_seconds": cp.cfg.MaxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (creating if needed) dataDir/FileName, migrates it and
// prepares the hot statements.
func NewDB(ctx context.Context, dataDir string, cfg PoolConfig) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:       sqlDB,
		pool:     NewConnectionPool(sqlDB, cfg),
		prepared: make(map[string]*sql.Stmt),
	}

	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.initPreparedStatements(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS crisis_results (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			domain TEXT NOT NULL,
			entity TEXT NOT NULL,
			period INTEGER NOT NULL,
			score REAL NOT NULL,
			classification TEXT NOT NULL,
			top_factors TEXT NOT NULL, -- JSON array of factors
			evaluated_rules INTEGER NOT NULL,
			neutral BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_crisis_results_entity ON crisis_results(entity, domain, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_crisis_results_run ON crisis_results(run_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_crisis_results_domain_created ON crisis_results(domain, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

const (
	stmtInsertResult = "insert_result"
	stmtListByEntity = "list_by_entity"
	stmtLatestRunID  = "latest_run_id"
	stmtListByRun    = "list_by_run"
)

const resultColumns = `id, run_id, position, domain, entity, period, score, classification,
	top_factors, evaluated_rules, neutral, created_at`

func (db *DB) initPreparedStatements(ctx context.Context) error {
	statements := map[string]string{
		stmtInsertResult: `INSERT INTO crisis_results (` + resultColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		stmtListByEntity: `SELECT ` + resultColumns + ` FROM crisis_results
			WHERE entity = ? AND (? = '' OR domain = ?)
			ORDER BY created_at DESC, rowid DESC LIMIT ?`,

		stmtLatestRunID: `SELECT run_id FROM crisis_results
			WHERE domain = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,

		stmtListByRun: `SELECT ` + resultColumns + ` FROM crisis_results
			WHERE run_id = ? ORDER BY position ASC`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt
		slog.Debug("Prepared statement initialized", "name", name)
	}
	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}
	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the prepared statements and the connection pool.
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
