// Package company resolves the company named in a report to a stored
// company identifier, creating the company when no match exists.
package company

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/minedocs/internal/model"
)

// Store is the subset of the relational store the resolver needs.
type Store interface {
	SearchCompaniesByName(ctx context.Context, name string, limit int) ([]model.Company, error)
	CreateCompany(ctx context.Context, c *model.Company) error
}

// Resolution is the outcome of resolving one company name.
type Resolution struct {
	CompanyID string
	Name      string
	Created   bool
}

// Resolver handles company identity resolution.
type Resolver struct {
	store Store
	group singleflight.Group
	now   func() time.Time
}

// NewResolver creates a company resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve returns the identifier of the first stored company whose name
// contains name (case-insensitive), or creates a company for it. An empty
// name resolves as "Unknown". Concurrent calls for the same normalized name
// within this process share one lookup, so at most one of them creates.
func (r *Resolver) Resolve(ctx context.Context, name, docName string) (*Resolution, error) {
	display := CleanName(name)
	if display == "" {
		display = model.UnknownCompany
	}

	v, err, _ := r.group.Do(NormalizeName(display), func() (any, error) {
		return r.resolve(ctx, display, docName)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*Resolution)
	return &res, nil
}

func (r *Resolver) resolve(ctx context.Context, name, docName string) (*Resolution, error) {
	matches, err := r.store.SearchCompaniesByName(ctx, name, 2)
	if err != nil {
		return nil, eris.Wrapf(err, "company: search %q", name)
	}

	if len(matches) > 0 {
		first := matches[0]
		if len(matches) > 1 {
			zap.L().Warn("company: ambiguous name, using oldest match",
				zap.String("name", name),
				zap.String("company_id", first.ID),
				zap.String("company_name", first.Name),
				zap.String("other_name", matches[1].Name),
			)
		}
		zap.L().Debug("company: matched",
			zap.String("name", name),
			zap.String("company_id", first.ID),
		)
		return &Resolution{CompanyID: first.ID, Name: first.Name}, nil
	}

	c := &model.Company{
		ID:          uuid.New().String(),
		Name:        name,
		Description: model.Ptr(fmt.Sprintf("Mining company from %s", docName)),
		CreatedAt:   r.now().UTC(),
	}
	if err := r.store.CreateCompany(ctx, c); err != nil {
		return nil, eris.Wrapf(err, "company: create %q", name)
	}

	zap.L().Info("company: created",
		zap.String("name", name),
		zap.String("company_id", c.ID),
		zap.String("document", docName),
	)
	return &Resolution{CompanyID: c.ID, Name: c.Name, Created: true}, nil
}

// CleanName applies NFKC normalization and collapses runs of whitespace,
// keeping the original case.
func CleanName(name string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(name)), " ")
}

// NormalizeName returns the case-folded form of CleanName(name), used as the
// identity key for a company name.
func NormalizeName(name string) string {
	return cases.Fold().String(CleanName(name))
}
