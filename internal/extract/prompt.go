package extract

import (
	"strings"
	"unicode/utf8"
)

// SystemPrompt frames the oracle as a domain analyst.
const SystemPrompt = "You are a mining industry analyst. Extract only factual data from technical reports."

const instructions = `Analyze this mining technical report and extract the following information.
Return ONLY a valid JSON object with these fields:

{
  "project_name": "string",
  "company_name": "string",
  "location": "string (country or region)",
  "commodities": ["array of commodity strings"],
  "npv": number (in millions USD, null if not found),
  "irr": number (percentage, null if not found),
  "capex": number (in millions USD, null if not found),
  "opex": number (per unit cost, null if not found),
  "resource": "string (e.g., '43.7 Mt @ 2.5% Cu')",
  "reserve": "string (e.g., '11.8 Mt @ 3.1% Cu')",
  "mine_life": number (years, null if not found),
  "production_rate": "string (e.g., '100,000 oz/year')",
  "stage": "string (Exploration/Pre-Feasibility/Feasibility/Development/Production)"
}
`

// BuildPrompt renders the user prompt for one document. The excerpt is the
// first maxChars characters of text; maxChars <= 0 keeps all of it.
func BuildPrompt(text, docName string, maxChars int) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\nDocument name: ")
	b.WriteString(docName)
	b.WriteString("\n\nText excerpt:\n")
	b.WriteString(Truncate(text, maxChars))
	return b.String()
}

// Truncate returns the first n characters of s, counting runes so a
// multi-byte character is never split.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
