package repository

import (
	"area_service/internal/domain/model"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// AnalysisCache is an optional Postgres-backed cache of completed analyses,
// keyed by a hash of the normalized query. A nil cache is a valid no-op.
type AnalysisCache struct {
	db  *sqlx.DB
	ttl time.Duration
}

func NewAnalysisCache(connStr string, ttl time.Duration) (*AnalysisCache, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &AnalysisCache{db: db, ttl: ttl}, nil
}

// EnsureSchema creates the cache table if it does not exist.
func (c *AnalysisCache) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS analysis_cache (
			query_hash TEXT PRIMARY KEY,
			city       TEXT NOT NULL,
			area       TEXT NOT NULL,
			result     JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create analysis_cache table: %w", err)
	}
	return nil
}

// QueryHash returns a stable key for a query, case- and whitespace-insensitive.
func QueryHash(q model.Query) string {
	normalized := strings.ToLower(strings.TrimSpace(q.City)) + "|" + strings.ToLower(strings.TrimSpace(q.Area))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for q, or nil when absent or expired.
func (c *AnalysisCache) Get(ctx context.Context, q model.Query) (*model.AnalysisResult, error) {
	const query = `
		SELECT result
		FROM analysis_cache
		WHERE query_hash = $1
		AND created_at > $2`

	var raw []byte
	err := c.db.GetContext(ctx, &raw, query, QueryHash(q), time.Now().Add(-c.ttl))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis cache: %w", err)
	}

	var result model.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached analysis: %w", err)
	}

	return &result, nil
}

// Put stores a completed analysis, replacing any previous entry for q.
func (c *AnalysisCache) Put(ctx context.Context, q model.Query, result *model.AnalysisResult) error {
	// Сериализация результата в JSON
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	const query = `
		INSERT INTO analysis_cache (query_hash, city, area, result, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (query_hash) DO UPDATE
		SET result = EXCLUDED.result, created_at = EXCLUDED.created_at`

	if _, err := c.db.ExecContext(ctx, query, QueryHash(q), q.City, q.Area, raw); err != nil {
		return fmt.Errorf("failed to store analysis result: %w", err)
	}
	return nil
}

func (c *AnalysisCache) Close() error {
	return c.db.Close()
}
