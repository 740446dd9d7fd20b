package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/minedocs/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. List columns are
// stored as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas below are per connection; keep a single one.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	ticker      TEXT,
	description TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS projects (
	id                    TEXT PRIMARY KEY,
	company_id            TEXT NOT NULL REFERENCES companies(id),
	name                  TEXT NOT NULL,
	location              TEXT,
	commodities           TEXT NOT NULL DEFAULT '[]',
	npv                   REAL,
	irr                   REAL,
	capex                 REAL,
	opex                  REAL,
	resource              TEXT,
	reserve               TEXT,
	mine_life             REAL,
	production_rate       TEXT,
	stage                 TEXT NOT NULL DEFAULT 'Unknown',
	status                TEXT NOT NULL DEFAULT 'Active',
	description           TEXT,
	document_storage_path TEXT,
	urls                  TEXT NOT NULL DEFAULT '[]',
	watchlist             INTEGER NOT NULL DEFAULT 0,
	created_at            DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pdf_highlights (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	data_type  TEXT NOT NULL,
	value      TEXT NOT NULL,
	quote      TEXT NOT NULL,
	page       INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_companies_created_at ON companies(created_at, id);
CREATE INDEX IF NOT EXISTS idx_projects_company_id ON projects(company_id);
CREATE INDEX IF NOT EXISTS idx_pdf_highlights_project_id ON pdf_highlights(project_id);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SearchCompaniesByName returns companies whose name contains name, oldest
// first. SQLite's LIKE folds ASCII case only.
func (s *SQLiteStore) SearchCompaniesByName(ctx context.Context, name string, limit int) ([]model.Company, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ticker, description, created_at
		FROM companies
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY created_at, id
		LIMIT ?`, containsPattern(name), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: search companies %q", name)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		var ticker, description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &ticker, &description, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		c.Ticker = nullString(ticker)
		c.Description = nullString(description)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, ticker, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Ticker, c.Description, c.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert company %q", c.Name)
	}
	return nil
}

func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	commodities, err := jsonList(p.Commodities)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal commodities")
	}
	urls, err := jsonList(p.URLs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal urls")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (
			id, company_id, name, location, commodities,
			npv, irr, capex, opex, resource,
			reserve, mine_life, production_rate, stage, status,
			description, document_storage_path, urls, watchlist, created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyID, p.Name, p.Location, commodities,
		p.NPV, p.IRR, p.Capex, p.Opex, p.Resource,
		p.Reserve, p.MineLife, p.ProductionRate, p.Stage, p.Status,
		p.Description, p.DocumentStoragePath, urls, p.Watchlist, p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert project %q", p.Name)
	}
	return nil
}

// CreateHighlights writes all highlights in one transaction.
func (s *SQLiteStore) CreateHighlights(ctx context.Context, hs []model.Highlight) error {
	if len(hs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin highlights")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pdf_highlights (id, project_id, data_type, value, quote, page) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare highlights")
	}
	defer stmt.Close()

	for _, h := range hs {
		if _, err := stmt.ExecContext(ctx, h.ID, h.ProjectID, h.DataType, h.Value, h.Quote, h.Page); err != nil {
			return eris.Wrapf(err, "sqlite: insert highlight %s", h.DataType)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit highlights")
}

var _ Store = (*SQLiteStore)(nil)

func jsonList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
