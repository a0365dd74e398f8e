package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
)

// Record is one stored analysis
type Record struct {
	RunID        string          `json:"run_id"`
	CreatedAt    time.Time       `json:"created_at"`
	Input        string          `json:"input"`
	Accepted     bool            `json:"accepted"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	TokenCount   int             `json:"token_count"`
	SymbolCount  int             `json:"symbol_count"`
	DurationMS   float64         `json:"duration_ms"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Filter defines criteria for listing records
type Filter struct {
	Accepted *bool
	Since    time.Time
	Contains string
	Limit    int
	Offset   int
}

// Stats summarizes the stored records
type Stats struct {
	Total       int64            `json:"total"`
	Accepted    int64            `json:"accepted"`
	Rejected    int64            `json:"rejected"`
	ByErrorCode map[string]int64 `json:"by_error_code"`
}

// HistoryStore defines the interface for analysis persistence
type HistoryStore interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, runID string) (*Record, error)
	List(ctx context.Context, filter Filter) ([]*Record, error)
	Stats(ctx context.Context) (*Stats, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteStore implements HistoryStore using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// DefaultSQLiteConfig returns default configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path: "./data/history.db",
	}
}

// NewSQLiteStore opens (and creates if needed) the history database
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, dbError(err, "failed to create directory")
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(err, "failed to open database")
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema")
	}
	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		run_id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		input TEXT NOT NULL,
		accepted INTEGER NOT NULL,
		error_code TEXT,
		error_message TEXT,
		token_count INTEGER NOT NULL DEFAULT 0,
		symbol_count INTEGER NOT NULL DEFAULT 0,
		duration_ms REAL NOT NULL DEFAULT 0,
		payload TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_analyses_accepted ON analyses(accepted);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save stores a record; the run id must be unique
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.RunID == "" {
		return mdwerror.New("run id is required").WithCode(mdwerror.CodeInvalidInput)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	var payload interface{}
	if len(rec.Payload) > 0 {
		payload = string(rec.Payload)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (run_id, created_at, input, accepted, error_code, error_message,
			token_count, symbol_count, duration_ms, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.CreatedAt, rec.Input, rec.Accepted, nullString(rec.ErrorCode), nullString(rec.ErrorMessage),
		rec.TokenCount, rec.SymbolCount, rec.DurationMS, payload)
	if err != nil {
		return dbError(err, "failed to insert analysis").WithDetail("run_id", rec.RunID)
	}
	return nil
}

// Get returns the record with the given run id
func (s *SQLiteStore) Get(ctx context.Context, runID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE run_id = ?`, runID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mdwerror.Newf("analysis %s not found", runID).
			WithCode(mdwerror.CodeNotFound).
			WithDetail("run_id", runID)
	}
	if err != nil {
		return nil, dbError(err, "failed to read analysis")
	}
	return rec, nil
}

// List returns records matching filter, newest first
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + ` WHERE 1=1`
	var args []interface{}

	if filter.Accepted != nil {
		query += " AND accepted = ?"
		args = append(args, *filter.Accepted)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC())
	}
	if filter.Contains != "" {
		query += " AND instr(input, ?) > 0"
		args = append(args, filter.Contains)
	}

	query += " ORDER BY created_at DESC, run_id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query analyses")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, dbError(err, "failed to scan analysis")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to iterate analyses")
	}
	return records, nil
}

// Stats counts stored records by outcome and error code
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByErrorCode: make(map[string]int64)}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(accepted), 0) FROM analyses`).Scan(&stats.Total, &stats.Accepted)
	if err != nil {
		return nil, dbError(err, "failed to count analyses")
	}
	stats.Rejected = stats.Total - stats.Accepted

	rows, err := s.db.QueryContext(ctx,
		`SELECT error_code, COUNT(*) FROM analyses WHERE error_code IS NOT NULL GROUP BY error_code`)
	if err != nil {
		return nil, dbError(err, "failed to group analyses")
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var count int64
		if err := rows.Scan(&code, &count); err != nil {
			return nil, dbError(err, "failed to scan error counts")
		}
		stats.ByErrorCode[code] = count
	}
	return stats, rows.Err()
}

// Prune deletes records older than the given age
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()
	result, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, dbError(err, "failed to prune analyses")
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// Ping verifies the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectColumns = `SELECT run_id, created_at, input, accepted, error_code, error_message,
	token_count, symbol_count, duration_ms, payload FROM analyses`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var errorCode, errorMessage, payload sql.NullString

	if err := row.Scan(&rec.RunID, &rec.CreatedAt, &rec.Input, &rec.Accepted, &errorCode, &errorMessage,
		&rec.TokenCount, &rec.SymbolCount, &rec.DurationMS, &payload); err != nil {
		return nil, err
	}
	rec.ErrorCode = errorCode.String
	rec.ErrorMessage = errorMessage.String
	if payload.Valid {
		rec.Payload = json.RawMessage(payload.String)
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dbError(err error, message string) *mdwerror.Error {
	return mdwerror.Wrap(err, message).
		WithCode(mdwerror.CodeDatabaseError).
		WithOperation("store")
}

// MemoryStore is an in-memory implementation for testing and for running
// without a database file
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	closed  bool
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Save stores a copy of rec
func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dbError(errors.New("store closed"), "failed to insert analysis")
	}
	if rec.RunID == "" {
		return mdwerror.New("run id is required").WithCode(mdwerror.CodeInvalidInput)
	}
	if _, exists := s.records[rec.RunID]; exists {
		return dbError(fmt.Errorf("duplicate run id %s", rec.RunID), "failed to insert analysis")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	stored := *rec
	s.records[rec.RunID] = &stored
	return nil
}

// Get returns the record with the given run id
func (s *MemoryStore) Get(ctx context.Context, runID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[runID]
	if !ok {
		return nil, mdwerror.Newf("analysis %s not found", runID).
			WithCode(mdwerror.CodeNotFound).
			WithDetail("run_id", runID)
	}
	copied := *rec
	return &copied, nil
}

// List returns records matching filter, newest first
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Record
	for _, rec := range s.records {
		if filter.Accepted != nil && rec.Accepted != *filter.Accepted {
			continue
		}
		if !filter.Since.IsZero() && rec.CreatedAt.Before(filter.Since) {
			continue
		}
		if filter.Contains != "" && !strings.Contains(rec.Input, filter.Contains) {
			continue
		}
		copied := *rec
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].RunID < matched[j].RunID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Stats counts stored records by outcome and error code
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByErrorCode: make(map[string]int64)}
	for _, rec := range s.records {
		stats.Total++
		if rec.Accepted {
			stats.Accepted++
		} else {
			stats.Rejected++
		}
		if rec.ErrorCode != "" {
			stats.ByErrorCode[rec.ErrorCode]++
		}
	}
	return stats, nil
}

// Prune deletes records older than the given age
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var deleted int64
	for id, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping fails after Close
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("store closed")
	}
	return nil
}

// Close marks the store closed
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
