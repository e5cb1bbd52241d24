package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sjsage522/leadworker/internal/lead"
	"sjsage522/leadworker/logger"
	apperrors "sjsage522/leadworker/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

const backendSQLite = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	niche TEXT NOT NULL,
	location TEXT NOT NULL,
	company_name TEXT NOT NULL,
	website_url TEXT NOT NULL,
	rating REAL,
	review_count INTEGER,
	status TEXT NOT NULL DEFAULT 'discovered',
	engine_used TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_website_url ON leads(website_url);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

const upsertLead = `
INSERT INTO leads (niche, location, company_name, website_url, rating, review_count, status, engine_used, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(website_url) DO UPDATE SET
	niche = excluded.niche,
	location = excluded.location,
	company_name = excluded.company_name,
	rating = excluded.rating,
	review_count = excluded.review_count,
	status = excluded.status,
	engine_used = excluded.engine_used`

// SQLiteStore keeps leads in a local SQLite database
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// OpenSQLite opens the database at path in WAL mode and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.NewStore(backendSQLite, "open "+path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, apperrors.NewStore(backendSQLite, "enable WAL", err)
	}

	s := NewSQLiteStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database handle
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, log: logger.ForStore(backendSQLite)}
}

// Migrate creates the leads table and its indexes
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewStore(backendSQLite, "apply schema", err)
	}
	return nil
}

// Exists implements Store
func (s *SQLiteStore) Exists(ctx context.Context, websiteURL string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM leads WHERE website_url = ? LIMIT 1`, websiteURL).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStore(backendSQLite, "exists", err)
	}
	return true, nil
}

// UpsertDiscovered implements Store
func (s *SQLiteStore) UpsertDiscovered(ctx context.Context, l lead.Lead) error {
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, upsertLead,
		l.Niche,
		l.Location,
		l.CompanyName,
		l.WebsiteURL,
		l.Rating,
		l.ReviewCount,
		string(l.Status),
		l.EngineUsed,
		createdAt,
	)
	if err != nil {
		return apperrors.NewStore(backendSQLite, "upsert "+l.WebsiteURL, err)
	}
	s.log.Debug().Str("website", l.WebsiteURL).Msg("Lead upserted")
	return nil
}

// ListByStatus implements Store
func (s *SQLiteStore) ListByStatus(ctx context.Context, status lead.Status, limit int) ([]lead.Lead, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT niche, location, company_name, website_url, rating, review_count, status, engine_used, created_at
FROM leads
WHERE status = ?
ORDER BY created_at DESC
LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, apperrors.NewStore(backendSQLite, "list", err)
	}
	defer rows.Close()

	var leads []lead.Lead
	for rows.Next() {
		var (
			l           lead.Lead
			st          string
			rating      sql.NullFloat64
			reviewCount sql.NullInt64
		)
		if err := rows.Scan(&l.Niche, &l.Location, &l.CompanyName, &l.WebsiteURL,
			&rating, &reviewCount, &st, &l.EngineUsed, &l.CreatedAt); err != nil {
			return nil, apperrors.NewStore(backendSQLite, "scan lead", err)
		}
		l.Status = lead.Status(st)
		if rating.Valid {
			v := rating.Float64
			l.Rating = &v
		}
		if reviewCount.Valid {
			v := int(reviewCount.Int64)
			l.ReviewCount = &v
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStore(backendSQLite, "list", err)
	}
	return leads, nil
}

// Close implements Store
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
