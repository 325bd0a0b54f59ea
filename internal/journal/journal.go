// Package journal records proxy exchanges in a small SQLite database so that
// operators can see which dashboards are failing and why.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Outcome classifies how a proxy exchange ended.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeUpstreamError  Outcome = "upstream_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeBadRequest     Outcome = "bad_request"
)

const DefaultLimit = 50

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    feature TEXT NOT NULL,
    request_id TEXT NOT NULL DEFAULT '',
    method TEXT NOT NULL,
    upstream_url TEXT NOT NULL DEFAULT '',
    status_code INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    cached INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchanges_feature_created ON exchanges(feature, created_at);
`

// Entry is one recorded exchange.
type Entry struct {
	ID          int64     `json:"id"`
	Feature     string    `json:"feature"`
	RequestID   string    `json:"request_id,omitempty"`
	Method      string    `json:"method"`
	UpstreamURL string    `json:"upstream_url,omitempty"`
	StatusCode  int       `json:"status_code"`
	Outcome     Outcome   `json:"outcome"`
	Detail      string    `json:"detail,omitempty"`
	Cached      bool      `json:"cached"`
	Duration    int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type row struct {
	ID          int64  `db:"id"`
	Feature     string `db:"feature"`
	RequestID   string `db:"request_id"`
	Method      string `db:"method"`
	UpstreamURL string `db:"upstream_url"`
	StatusCode  int    `db:"status_code"`
	Outcome     string `db:"outcome"`
	Detail      string `db:"detail"`
	Cached      bool   `db:"cached"`
	DurationMS  int64  `db:"duration_ms"`
	CreatedAt   int64  `db:"created_at"`
}

// Journal is safe for concurrent use. A nil *Journal records nothing.
type Journal struct {
	db *sqlx.DB
}

// Open opens (or creates) the journal at path. ":memory:" is accepted.
func Open(path string) (*Journal, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends an entry. CreatedAt defaults to now.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r := row{
		Feature:     e.Feature,
		RequestID:   e.RequestID,
		Method:      e.Method,
		UpstreamURL: e.UpstreamURL,
		StatusCode:  e.StatusCode,
		Outcome:     string(e.Outcome),
		Detail:      e.Detail,
		Cached:      e.Cached,
		DurationMS:  e.Duration,
		CreatedAt:   e.CreatedAt.UnixMilli(),
	}
	_, err := j.db.NamedExecContext(ctx, `
        INSERT INTO exchanges (feature, request_id, method, upstream_url, status_code, outcome, detail, cached, duration_ms, created_at)
        VALUES (:feature, :request_id, :method, :upstream_url, :status_code, :outcome, :detail, :cached, :duration_ms, :created_at)`, r)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// Recent returns the newest entries first, optionally filtered by feature.
func (j *Journal) Recent(ctx context.Context, feature string, limit int) ([]Entry, error) {
	if j == nil {
		return []Entry{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, feature, request_id, method, upstream_url, status_code, outcome, detail, cached, duration_ms, created_at
              FROM exchanges`
	args := []any{}
	if feature != "" {
		query += ` WHERE feature = ?`
		args = append(args, feature)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var rows []row
	if err := j.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{
			ID:          r.ID,
			Feature:     r.Feature,
			RequestID:   r.RequestID,
			Method:      r.Method,
			UpstreamURL: r.UpstreamURL,
			StatusCode:  r.StatusCode,
			Outcome:     Outcome(r.Outcome),
			Detail:      r.Detail,
			Cached:      r.Cached,
			Duration:    r.DurationMS,
			CreatedAt:   time.UnixMilli(r.CreatedAt),
		}
	}
	return entries, nil
}

// Counts returns the number of exchanges per outcome for a feature ("" = all).
func (j *Journal) Counts(ctx context.Context, feature string) (map[Outcome]int, error) {
	out := map[Outcome]int{}
	if j == nil {
		return out, nil
	}

	query := `SELECT outcome, COUNT(*) AS n FROM exchanges`
	args := []any{}
	if feature != "" {
		query += ` WHERE feature = ?`
		args = append(args, feature)
	}
	query += ` GROUP BY outcome`

	var rows []struct {
		Outcome string `db:"outcome"`
		N       int    `db:"n"`
	}
	if err := j.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count exchanges: %w", err)
	}
	for _, r := range rows {
		out[Outcome(r.Outcome)] = r.N
	}
	return out, nil
}
