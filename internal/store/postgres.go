package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/db"
	"github.com/sells-group/minedocs/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        TEXT NOT NULL,
	ticker      TEXT,
	description TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_created_at ON companies(created_at, id);

CREATE TABLE IF NOT EXISTS projects (
	id                    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	company_id            UUID NOT NULL REFERENCES companies(id),
	name                  TEXT NOT NULL,
	location              TEXT,
	commodities           TEXT[] NOT NULL DEFAULT '{}',
	npv                   DOUBLE PRECISION,
	irr                   DOUBLE PRECISION,
	capex                 DOUBLE PRECISION,
	opex                  DOUBLE PRECISION,
	resource              TEXT,
	reserve               TEXT,
	mine_life             DOUBLE PRECISION,
	production_rate       TEXT,
	stage                 TEXT NOT NULL DEFAULT 'Unknown',
	status                TEXT NOT NULL DEFAULT 'Active',
	description           TEXT,
	document_storage_path TEXT,
	urls                  TEXT[] NOT NULL DEFAULT '{}',
	watchlist             BOOLEAN NOT NULL DEFAULT false,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_projects_company_id ON projects(company_id);

CREATE TABLE IF NOT EXISTS pdf_highlights (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID NOT NULL REFERENCES projects(id),
	data_type  TEXT NOT NULL,
	value      TEXT NOT NULL,
	quote      TEXT NOT NULL,
	page       INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_pdf_highlights_project_id ON pdf_highlights(project_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SearchCompaniesByName returns companies whose name contains name,
// case-insensitively, oldest first.
func (s *PostgresStore) SearchCompaniesByName(ctx context.Context, name string, limit int) ([]model.Company, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, name, ticker, description, created_at
		FROM companies
		WHERE name ILIKE $1 ESCAPE '\'
		ORDER BY created_at, id
		LIMIT $2`, containsPattern(name), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: search companies %q", name)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Ticker, &c.Description, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate companies")
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, name, ticker, description, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Ticker, c.Description, c.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert company %q", c.Name)
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	commodities := p.Commodities
	if commodities == nil {
		commodities = []string{}
	}
	urls := p.URLs
	if urls == nil {
		urls = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (
			id, company_id, name, location, commodities,
			npv, irr, capex, opex, resource,
			reserve, mine_life, production_rate, stage, status,
			description, document_storage_path, urls, watchlist, created_at,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20,
			$21
		)`,
		p.ID, p.CompanyID, p.Name, p.Location, commodities,
		p.NPV, p.IRR, p.Capex, p.Opex, p.Resource,
		p.Reserve, p.MineLife, p.ProductionRate, p.Stage, p.Status,
		p.Description, p.DocumentStoragePath, urls, p.Watchlist, p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert project %q", p.Name)
	}
	return nil
}

// CreateHighlights writes all highlights in a single COPY.
func (s *PostgresStore) CreateHighlights(ctx context.Context, hs []model.Highlight) error {
	if len(hs) == 0 {
		return nil
	}
	rows, err := highlightCopyRows(hs)
	if err != nil {
		return err
	}
	if _, err := db.CopyFrom(ctx, s.pool, "pdf_highlights", highlightColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: insert highlights")
	}
	return nil
}

var highlightColumns = []string{"id", "project_id", "data_type", "value", "quote", "page"}

// highlightCopyRows converts highlights into COPY rows. COPY uses the binary
// protocol, so identifiers are sent as uuid.UUID rather than text.
func highlightCopyRows(hs []model.Highlight) ([][]any, error) {
	rows := make([][]any, len(hs))
	for i, h := range hs {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: highlight id %q", h.ID)
		}
		projectID, err := uuid.Parse(h.ProjectID)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: highlight project id %q", h.ProjectID)
		}
		rows[i] = []any{id, projectID, h.DataType, h.Value, h.Quote, int32(h.Page)}
	}
	return rows, nil
}

var _ Store = (*PostgresStore)(nil)
