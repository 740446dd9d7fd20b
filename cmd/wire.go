package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/blob"
	"github.com/sells-group/minedocs/internal/company"
	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/extract"
	"github.com/sells-group/minedocs/internal/persist"
	"github.com/sells-group/minedocs/internal/pipeline"
	"github.com/sells-group/minedocs/internal/store"
	"github.com/sells-group/minedocs/internal/textextract"
)

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	return store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: c.Store.MaxConns,
		MinConns: c.Store.MinConns,
	})
}

func initExtractor(c *config.Config) (*extract.Extractor, error) {
	oracle, err := extract.NewOracle(c)
	if err != nil {
		return nil, err
	}
	return extract.NewExtractor(oracle, c.Oracle), nil
}

// buildPipeline wires every stage from c. The caller owns st.
func buildPipeline(ctx context.Context, c *config.Config, st store.Store) (*pipeline.Pipeline, error) {
	blobs, err := blob.New(ctx, c.Blob)
	if err != nil {
		return nil, eris.Wrap(err, "init blob store")
	}
	text, err := textextract.NewExtractor(c.Text)
	if err != nil {
		return nil, eris.Wrap(err, "init text extractor")
	}
	extractor, err := initExtractor(c)
	if err != nil {
		return nil, eris.Wrap(err, "init oracle")
	}
	catalog, err := persist.LoadCatalog(c.Pipeline.HighlightsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load highlight catalog")
	}

	return pipeline.New(
		blobs,
		text,
		extractor,
		company.NewResolver(st),
		persist.NewPersister(st, catalog),
		pipeline.OptionsFromConfig(c),
	), nil
}
