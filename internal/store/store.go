package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/model"
)

// Store defines the persistence interface for ingested reports. Rows are
// only ever inserted; nothing is updated or deleted.
type Store interface {
	// Companies
	SearchCompaniesByName(ctx context.Context, name string, limit int) ([]model.Company, error)
	CreateCompany(ctx context.Context, c *model.Company) error

	// Projects
	CreateProject(ctx context.Context, p *model.Project) error
	CreateHighlights(ctx context.Context, hs []model.Highlight) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the Store selected by driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "postgres", "":
		if dsn == "" {
			return nil, eris.New("store: postgres requires a database url")
		}
		return NewPostgres(ctx, dsn, poolCfg)
	case "sqlite":
		if dsn == "" {
			dsn = "minedocs.db"
		}
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// containsPattern builds a LIKE pattern matching any name that contains
// name. Wildcards in name match literally under ESCAPE '\'.
func containsPattern(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(name) + "%"
}
