// Package pipeline runs the batch: list reports, then for each selected
// report fetch bytes, extract text, extract a record, resolve the company
// and persist the project. Documents are processed one at a time; a failure
// in one never stops the batch.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/minedocs/internal/blob"
	"github.com/sells-group/minedocs/internal/company"
	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/model"
	"github.com/sells-group/minedocs/internal/persist"
	"github.com/sells-group/minedocs/internal/resilience"
	"github.com/sells-group/minedocs/internal/textextract"
)

// StructuredExtractor turns report text into a record.
type StructuredExtractor interface {
	Extract(ctx context.Context, text, docName string) (*model.ExtractedRecord, error)
}

// CompanyResolver maps a company name to a stored company.
type CompanyResolver interface {
	Resolve(ctx context.Context, name, docName string) (*company.Resolution, error)
}

// RecordPersister writes the project and highlights for one record.
type RecordPersister interface {
	Save(ctx context.Context, in persist.SaveInput) (*persist.SaveResult, error)
}

// Options bounds a run.
type Options struct {
	Folder    string
	Extension string
	// BatchSize caps how many candidates are processed; <= 0 processes all.
	BatchSize int
	MaxPages  int
	MinChars  int
}

// OptionsFromConfig reads run bounds from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Folder:    cfg.Blob.Folder,
		Extension: cfg.Pipeline.Extension,
		BatchSize: cfg.Pipeline.BatchSize,
		MaxPages:  cfg.Text.MaxPages,
		MinChars:  cfg.Text.MinChars,
	}
}

// Pipeline orchestrates one batch run.
type Pipeline struct {
	blob      blob.Store
	text      textextract.Extractor
	extractor StructuredExtractor
	resolver  CompanyResolver
	persister RecordPersister
	opts      Options
}

// New creates a Pipeline with all dependencies.
func New(
	store blob.Store,
	text textextract.Extractor,
	extractor StructuredExtractor,
	resolver CompanyResolver,
	persister RecordPersister,
	opts Options,
) *Pipeline {
	return &Pipeline{
		blob:      store,
		text:      text,
		extractor: extractor,
		resolver:  resolver,
		persister: persister,
		opts:      opts,
	}
}

// Candidates lists the folder and returns every document with the wanted
// extension, in listing order, along with the raw listing size.
func (p *Pipeline) Candidates(ctx context.Context) ([]model.Document, int, error) {
	docs, err := p.blob.List(ctx, p.opts.Folder)
	if err != nil {
		return nil, 0, &ListingError{Folder: p.opts.Folder, Err: err}
	}
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if d.HasExtension(p.opts.Extension) {
			out = append(out, d)
		}
	}
	return out, len(docs), nil
}

// Run processes the first BatchSize candidates. A listing failure returns a
// *ListingError matching ErrListing with an empty report; an empty listing returns an empty report
// and no error. Cancelling ctx stops the run before the next document.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	log := zap.L().With(zap.String("folder", p.opts.Folder))

	candidates, listed, err := p.Candidates(ctx)
	if err != nil {
		log.Error("pipeline: listing failed, nothing processed", zap.Error(err))
		return &Report{}, err
	}
	report := &Report{Listed: listed, Candidates: len(candidates)}
	if listed == 0 {
		log.Warn("pipeline: no documents found")
		return report, nil
	}

	selected := candidates
	if p.opts.BatchSize > 0 && len(selected) > p.opts.BatchSize {
		selected = selected[:p.opts.BatchSize]
	}
	log.Info("pipeline: starting batch",
		zap.Int("listed", listed),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
	)

	for i, doc := range selected {
		if err := ctx.Err(); err != nil {
			log.Warn("pipeline: run cancelled", zap.Int("remaining", len(selected)-i))
			return report, eris.Wrap(err, "pipeline: run cancelled")
		}
		log.Info("pipeline: processing document",
			zap.String("document", doc.Name),
			zap.Int("index", i+1),
			zap.Int("of", len(selected)),
		)
		report.add(p.ProcessDocument(ctx, doc))
	}

	log.Info("pipeline: batch complete",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// ProcessDocument runs every stage for one document and reports where it
// stopped. It never returns an error; failures are carried on the result.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc model.Document) DocumentResult {
	start := time.Now()
	res := DocumentResult{Name: doc.Name, Path: doc.Path}
	log := zap.L().With(zap.String("document", doc.Name), zap.String("path", doc.Path))

	fail := func(stage Stage, kind FailureKind, err error) DocumentResult {
		res.Stage = stage
		res.Kind = kind
		res.Err = err
		res.Class = resilience.ClassifyError(err)
		res.Duration = time.Since(start)
		log.Warn("pipeline: document failed",
			zap.String("stage", string(stage)),
			zap.String("kind", string(kind)),
			zap.String("class", string(res.Class)),
			zap.Error(err),
		)
		return res
	}

	data, err := p.blob.Download(ctx, doc.Path)
	if err != nil {
		return fail(StageFetch, KindExtraction, err)
	}
	if len(data) == 0 {
		return fail(StageFetch, KindExtraction, ErrEmptyDocument)
	}

	text, err := p.text.ExtractText(ctx, data, p.opts.MaxPages)
	if err != nil {
		return fail(StageText, KindExtraction, err)
	}
	if !textextract.Sufficient(text.Text, p.opts.MinChars) {
		return fail(StageText, KindExtraction, eris.Wrapf(ErrInsufficientText,
			"pipeline: %d pages read", text.PagesRead))
	}
	res.PagesRead = text.PagesRead
	log.Debug("pipeline: text extracted",
		zap.Int("pages_read", text.PagesRead),
		zap.Int("total_pages", text.TotalPages),
		zap.Int("chars", len(text.Text)),
	)

	rec, err := p.extractor.Extract(ctx, text.Text, doc.Name)
	if err != nil {
		return fail(StageInfer, KindInference, err)
	}
	if rec == nil {
		return fail(StageInfer, KindInference, eris.New("pipeline: no record extracted"))
	}

	resolution, err := p.resolver.Resolve(ctx, model.StringOr(rec.CompanyName, ""), doc.Name)
	if err != nil {
		return fail(StageResolve, KindPersistence, err)
	}
	res.CompanyID = resolution.CompanyID
	res.CompanyCreated = resolution.Created

	saved, err := p.persister.Save(ctx, persist.SaveInput{
		Record:       rec,
		CompanyID:    resolution.CompanyID,
		DocumentName: doc.Name,
		DocumentURL:  p.blob.PublicURL(doc.Path),
	})
	if err != nil {
		return fail(StagePersist, KindPersistence, err)
	}

	res.Stage = StageDone
	res.ProjectID = saved.Project.ID
	res.ProjectName = saved.Project.Name
	res.Highlights = len(saved.Highlights)
	res.Duration = time.Since(start)
	log.Info("pipeline: document processed",
		zap.String("project_id", res.ProjectID),
		zap.String("company_id", res.CompanyID),
		zap.Int("highlights", res.Highlights),
		zap.Duration("elapsed", res.Duration),
	)
	return res
}
