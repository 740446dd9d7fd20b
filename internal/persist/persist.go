// Package persist writes one project, and the highlights derived from it,
// for each extracted report.
package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/minedocs/internal/model"
)

// Store is the subset of the relational store the persister writes to.
type Store interface {
	CreateProject(ctx context.Context, p *model.Project) error
	CreateHighlights(ctx context.Context, hs []model.Highlight) error
}

// SaveInput carries everything needed to persist one document.
type SaveInput struct {
	Record       *model.ExtractedRecord
	CompanyID    string
	DocumentName string
	// DocumentURL is the public URL of the stored report. It is recorded as
	// the project's storage path and as its only URL.
	DocumentURL string
}

// SaveResult reports what was written.
type SaveResult struct {
	Project    model.Project
	Highlights []model.Highlight
}

// Persister creates projects and highlights.
type Persister struct {
	store   Store
	catalog *Catalog
	now     func() time.Time
}

// NewPersister creates a Persister. A nil catalog uses DefaultCatalog.
func NewPersister(store Store, catalog *Catalog) *Persister {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Persister{store: store, catalog: catalog, now: time.Now}
}

// Save writes the project, then its highlights. Writes are not transactional
// across the two steps: a highlight failure leaves the project in place and
// is returned as an error.
func (p *Persister) Save(ctx context.Context, in SaveInput) (*SaveResult, error) {
	if in.Record == nil {
		return nil, eris.New("persist: nil record")
	}
	if in.CompanyID == "" {
		return nil, eris.New("persist: company id is required")
	}

	project := BuildProject(in, p.now().UTC())
	if err := p.store.CreateProject(ctx, &project); err != nil {
		return nil, eris.Wrapf(err, "persist: create project %q", project.Name)
	}

	highlights := p.catalog.Highlights(project.ID, in.Record)
	if len(highlights) > 0 {
		if err := p.store.CreateHighlights(ctx, highlights); err != nil {
			zap.L().Warn("persist: project written without highlights",
				zap.String("project_id", project.ID),
				zap.String("document", in.DocumentName),
			)
			return nil, eris.Wrapf(err, "persist: create highlights for project %s", project.ID)
		}
	}

	zap.L().Info("persist: project saved",
		zap.String("project_id", project.ID),
		zap.String("project", project.Name),
		zap.String("company_id", project.CompanyID),
		zap.Int("highlights", len(highlights)),
	)
	return &SaveResult{Project: project, Highlights: highlights}, nil
}

// BuildProject maps an extracted record onto a new project stamped with now.
func BuildProject(in SaveInput, now time.Time) model.Project {
	rec := in.Record
	commodities := rec.Commodities
	if commodities == nil {
		commodities = []string{}
	}
	var urls []string
	if in.DocumentURL != "" {
		urls = []string{in.DocumentURL}
	}

	return model.Project{
		ID:                  uuid.New().String(),
		CompanyID:           in.CompanyID,
		Name:                model.StringOr(rec.ProjectName, model.Document{Name: in.DocumentName}.BaseName()),
		Location:            rec.Location,
		Commodities:         commodities,
		NPV:                 rec.NPV,
		IRR:                 rec.IRR,
		Capex:               rec.Capex,
		Opex:                rec.Opex,
		Resource:            rec.Resource,
		Reserve:             rec.Reserve,
		MineLife:            rec.MineLife,
		ProductionRate:      rec.ProductionRate,
		Stage:               model.StringOr(rec.Stage, model.StageUnknown),
		Status:              model.ProjectStatusActive,
		Description:         fmt.Sprintf("Extracted from technical report: %s", in.DocumentName),
		DocumentStoragePath: in.DocumentURL,
		URLs:                urls,
		Watchlist:           false,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
