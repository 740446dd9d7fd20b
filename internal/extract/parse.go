package extract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/minedocs/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func recordSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = eris.Wrap(err, "extract: add schema")
			return
		}
		compiledSchema, schemaErr = compiler.Compile("record.json")
		if schemaErr != nil {
			schemaErr = eris.Wrap(schemaErr, "extract: compile schema")
		}
	})
	return compiledSchema, schemaErr
}

var (
	stringFields = []string{"project_name", "company_name", "location", "resource", "reserve", "production_rate", "stage"}
	numberFields = []string{"npv", "irr", "capex", "opex", "mine_life"}
)

// ParseRecord decodes an oracle payload into an ExtractedRecord. Values of
// the wrong JSON type are coerced where the intent is clear and dropped to
// null otherwise; unknown fields are ignored.
func ParseRecord(text string) (*model.ExtractedRecord, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("extract: empty response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, eris.Wrap(err, "extract: parse response")
	}
	if raw == nil {
		return nil, eris.New("extract: response is not a JSON object")
	}

	doc := sanitize(raw)

	schema, err := recordSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, eris.Wrap(err, "extract: response does not match schema")
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "extract: marshal sanitized record")
	}
	var rec model.ExtractedRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, eris.Wrap(err, "extract: decode record")
	}
	return &rec, nil
}

// sanitize keeps the known fields of raw, coercing each to its schema type.
func sanitize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(stringFields)+len(numberFields)+1)
	for _, k := range stringFields {
		if v, ok := toText(raw[k]); ok {
			out[k] = v
		}
	}
	for _, k := range numberFields {
		if v, ok := toNumber(raw[k]); ok {
			out[k] = v
		}
	}
	// The validator only accepts the types encoding/json decodes into.
	if list := toStringList(raw["commodities"]); list != nil {
		items := make([]any, len(list))
		for i, c := range list {
			items[i] = c
		}
		out["commodities"] = items
	}
	return out
}

func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		if t == "" || isNullWord(t) {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// numberReplacer strips currency markers and separators the model sometimes
// leaves on numeric answers ("US$1.2B", "1,200").
var numberReplacer = strings.NewReplacer("us$", "", "usd", "", "$", "", ",", "")

var numberPattern = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+))\s*([a-z%]*)`)

// numberScales maps a unit suffix to its factor against the record's units.
// Money fields are millions of USD, so "450 million" and "$450M" are 450.
var numberScales = map[string]float64{
	"":         1,
	"%":        1,
	"percent":  1,
	"m":        1,
	"mm":       1,
	"mln":      1,
	"million":  1,
	"millions": 1,
	"b":        1000,
	"bn":       1000,
	"billion":  1000,
	"billions": 1000,
	"k":        0.001,
	"thousand": 0.001,
	"y":        1,
	"yr":       1,
	"yrs":      1,
	"year":     1,
	"years":    1,
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := numberReplacer.Replace(strings.ToLower(strings.TrimSpace(t)))
		m := numberPattern.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			return 0, false
		}
		scale, ok := numberScales[m[2]]
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f * scale, true
	default:
		return 0, false
	}
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" && !isNullWord(s) {
			return []string{s}
		}
		return []string{}
	default:
		return nil
	}
}

func isNullWord(s string) bool {
	switch strings.ToLower(s) {
	case "null", "n/a", "na", "none", "unknown", "not found":
		return true
	}
	return false
}

// cleanJSON strips markdown code fences and surrounding prose, leaving the
// outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
