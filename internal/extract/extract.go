// Package extract turns report text into an ExtractedRecord by prompting an
// inference oracle with a fixed JSON schema.
package extract

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/cost"
	"github.com/sells-group/minedocs/internal/model"
)

// Extractor builds the prompt, calls the oracle and parses its answer.
type Extractor struct {
	oracle  Oracle
	cfg     config.OracleConfig
	limiter *rate.Limiter
	costs   *cost.Calculator
}

// NewExtractor creates an Extractor. When cfg.RequestsPerMinute is positive,
// oracle calls are paced to that rate.
func NewExtractor(oracle Oracle, cfg config.OracleConfig) *Extractor {
	e := &Extractor{oracle: oracle, cfg: cfg, costs: cost.NewCalculator(cost.DefaultRates())}
	if cfg.RequestsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return e
}

// Extract returns the record the oracle found in text. Any failure (oracle
// call, malformed output, schema mismatch) yields a nil record and an error,
// and is logged against docName.
func (e *Extractor) Extract(ctx context.Context, text, docName string) (*model.ExtractedRecord, error) {
	log := zap.L().With(zap.String("document", docName))

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "extract: rate limit wait")
		}
	}

	resp, err := e.oracle.Complete(ctx, OracleRequest{
		System:      SystemPrompt,
		User:        BuildPrompt(text, docName, e.cfg.MaxPromptChars),
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		log.Warn("extract: oracle call failed", zap.Error(err))
		return nil, err
	}

	e.costs.Log(resp.Model, docName, cost.Usage{Input: resp.InputTokens, Output: resp.OutputTokens})

	rec, err := ParseRecord(resp.Text)
	if err != nil {
		log.Warn("extract: unusable oracle response",
			zap.Error(err),
			zap.Int("response_len", len(resp.Text)),
		)
		return nil, err
	}

	if rec.Stage != nil && !model.IsKnownStage(*rec.Stage) {
		log.Warn("extract: stage outside known set", zap.String("stage", *rec.Stage))
	}

	log.Debug("extract: record parsed",
		zap.String("project", model.StringOr(rec.ProjectName, "")),
		zap.String("company", model.StringOr(rec.CompanyName, "")),
	)
	return rec, nil
}
