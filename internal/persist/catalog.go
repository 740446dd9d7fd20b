package persist

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/minedocs/internal/model"
)

//go:embed highlights.yaml
var defaultCatalog []byte

// HighlightRule maps one ExtractedRecord metric to a highlight.
type HighlightRule struct {
	DataType string `yaml:"data_type"`
	Field    string `yaml:"field"`
	Quote    string `yaml:"quote"`
	Page     int    `yaml:"page"`
}

// Catalog is the ordered set of highlight rules.
type Catalog struct {
	Rules []HighlightRule `yaml:"highlights"`
}

// DefaultCatalog returns the built-in NPV, IRR and CAPEX rules.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads rules from path, or returns the default catalog when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "persist: read highlights file %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates YAML rules. Page defaults to 1.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "persist: parse highlights")
	}
	var probe model.ExtractedRecord
	for i := range c.Rules {
		r := &c.Rules[i]
		if r.DataType == "" || r.Quote == "" {
			return nil, eris.Errorf("persist: highlight rule %d needs data_type and quote", i)
		}
		if _, ok := probe.Metric(r.Field); !ok {
			return nil, eris.Errorf("persist: highlight rule %s: unknown field %q", r.DataType, r.Field)
		}
		if r.Page <= 0 {
			r.Page = 1
		}
	}
	return &c, nil
}

// Highlights derives one highlight per rule whose metric is present in rec.
// A zero value is present.
func (c *Catalog) Highlights(projectID string, rec *model.ExtractedRecord) []model.Highlight {
	var out []model.Highlight
	for _, r := range c.Rules {
		v, _ := rec.Metric(r.Field)
		if v == nil {
			continue
		}
		value := FormatValue(*v)
		out = append(out, model.Highlight{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			DataType:  r.DataType,
			Value:     value,
			Quote:     strings.ReplaceAll(r.Quote, "{value}", value),
			Page:      r.Page,
		})
	}
	return out
}

// FormatValue renders v with the fewest digits that round-trip (450, 22.5).
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
