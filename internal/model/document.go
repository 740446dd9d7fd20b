package model

import (
	"path"
	"strings"
)

// Document is a report in the blob store. Only its bytes are ever read.
type Document struct {
	Name     string         `json:"name"`
	Path     string         `json:"path"`
	Size     int64          `json:"size,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BaseName returns the document name with its extension stripped.
func (d Document) BaseName() string {
	return strings.TrimSuffix(d.Name, path.Ext(d.Name))
}

// HasExtension reports whether the document name ends in ext, ignoring case.
func (d Document) HasExtension(ext string) bool {
	if ext == "" {
		return true
	}
	return len(d.Name) >= len(ext) && strings.EqualFold(d.Name[len(d.Name)-len(ext):], ext)
}

// ExtractedRecord is the structured data pulled out of a report. Absent
// values are nil, never a sentinel.
type ExtractedRecord struct {
	ProjectName    *string  `json:"project_name"`
	CompanyName    *string  `json:"company_name"`
	Location       *string  `json:"location"`
	Commodities    []string `json:"commodities"`
	NPV            *float64 `json:"npv"`
	IRR            *float64 `json:"irr"`
	Capex          *float64 `json:"capex"`
	Opex           *float64 `json:"opex"`
	Resource       *string  `json:"resource"`
	Reserve        *string  `json:"reserve"`
	MineLife       *float64 `json:"mine_life"`
	ProductionRate *string  `json:"production_rate"`
	Stage          *string  `json:"stage"`
}

// Metric returns the numeric field named by key ("npv", "irr", "capex",
// "opex", "mine_life"). The second result is false for unknown keys.
func (r *ExtractedRecord) Metric(key string) (*float64, bool) {
	switch strings.ToLower(key) {
	case "npv":
		return r.NPV, true
	case "irr":
		return r.IRR, true
	case "capex":
		return r.Capex, true
	case "opex":
		return r.Opex, true
	case "mine_life":
		return r.MineLife, true
	default:
		return nil, false
	}
}

// StringOr returns *s trimmed, or def when s is nil or blank.
func StringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	if v := strings.TrimSpace(*s); v != "" {
		return v
	}
	return def
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
