package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord_Full(t *testing.T) {
	rec, err := ParseRecord(`{
		"project_name": "Crater Lake",
		"company_name": "Acme Mining",
		"location": "Nevada, USA",
		"commodities": ["Gold", "Silver"],
		"npv": 450,
		"irr": 22,
		"capex": null,
		"opex": 812.5,
		"resource": "43.7 Mt @ 2.5% Cu",
		"reserve": "11.8 Mt @ 3.1% Cu",
		"mine_life": 12,
		"production_rate": "100,000 oz/year",
		"stage": "Feasibility"
	}`)
	require.NoError(t, err)

	assert.Equal(t, "Crater Lake", *rec.ProjectName)
	assert.Equal(t, "Acme Mining", *rec.CompanyName)
	assert.Equal(t, []string{"Gold", "Silver"}, rec.Commodities)
	assert.Equal(t, 450.0, *rec.NPV)
	assert.Equal(t, 22.0, *rec.IRR)
	assert.Nil(t, rec.Capex)
	assert.Equal(t, 812.5, *rec.Opex)
	assert.Equal(t, 12.0, *rec.MineLife)
	assert.Equal(t, "100,000 oz/year", *rec.ProductionRate)
	assert.Equal(t, "Feasibility", *rec.Stage)
}

func TestParseRecord_MissingFieldsAreNull(t *testing.T) {
	rec, err := ParseRecord(`{"project_name": "Aurora"}`)
	require.NoError(t, err)

	assert.Equal(t, "Aurora", *rec.ProjectName)
	assert.Nil(t, rec.CompanyName)
	assert.Nil(t, rec.NPV)
	assert.Nil(t, rec.IRR)
	assert.Nil(t, rec.Capex)
	assert.Nil(t, rec.Commodities)
	assert.Nil(t, rec.Stage)
}

func TestParseRecord_IgnoresUnknownFields(t *testing.T) {
	rec, err := ParseRecord(`{"project_name": "Aurora", "payback_years": 3.2, "notes": {"a": 1}}`)
	require.NoError(t, err)
	assert.Equal(t, "Aurora", *rec.ProjectName)
}

func TestParseRecord_CoercesValues(t *testing.T) {
	rec, err := ParseRecord(`{
		"npv": "$450M",
		"irr": "22.5%",
		"capex": "1,200",
		"opex": "N/A",
		"mine_life": true,
		"commodities": "Copper",
		"company_name": "",
		"resource": 43.7,
		"stage": null
	}`)
	require.NoError(t, err)

	assert.Equal(t, 450.0, *rec.NPV)
	assert.Equal(t, 22.5, *rec.IRR)
	assert.Equal(t, 1200.0, *rec.Capex)
	assert.Nil(t, rec.Opex)
	assert.Nil(t, rec.MineLife)
	assert.Equal(t, []string{"Copper"}, rec.Commodities)
	assert.Nil(t, rec.CompanyName)
	assert.Equal(t, "43.7", *rec.Resource)
	assert.Nil(t, rec.Stage)
}

func TestParseRecord_ScaleWords(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$450M", 450},
		{"450 million", 450},
		{"US$ 450 million", 450},
		{"USD 1,250.5 M", 1250.5},
		{"US$1.2B", 1200},
		{"2.1 billion", 2100},
		{"$1.5bn", 1500},
		{"750k", 0.75},
		{"-35.2", -35.2},
		{".5", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rec, err := ParseRecord(fmt.Sprintf(`{"npv": %q}`, tt.in))
			require.NoError(t, err)
			require.NotNil(t, rec.NPV)
			assert.InDelta(t, tt.want, *rec.NPV, 1e-9)
		})
	}

	rec, err := ParseRecord(`{"mine_life": "15 years", "irr": "18.4 percent", "opex": "about 12"}`)
	require.NoError(t, err)
	assert.Equal(t, 15.0, *rec.MineLife)
	assert.Equal(t, 18.4, *rec.IRR)
	assert.Nil(t, rec.Opex)
}

func TestParseRecord_UnknownUnitDropped(t *testing.T) {
	rec, err := ParseRecord(`{"capex": "450 Mt", "npv": "12 oz"}`)
	require.NoError(t, err)
	assert.Nil(t, rec.Capex)
	assert.Nil(t, rec.NPV)
}

func TestParseRecord_NonFiniteDropped(t *testing.T) {
	rec, err := ParseRecord(`{"npv": "NaN", "irr": "Inf"}`)
	require.NoError(t, err)
	assert.Nil(t, rec.NPV)
	assert.Nil(t, rec.IRR)
}

func TestParseRecord_CommoditiesDropNonStrings(t *testing.T) {
	rec, err := ParseRecord(`{"commodities": ["Gold", 7, " ", "Copper"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gold", "Copper"}, rec.Commodities)
}

func TestParseRecord_ZeroIsNotNull(t *testing.T) {
	rec, err := ParseRecord(`{"npv": 0}`)
	require.NoError(t, err)
	require.NotNil(t, rec.NPV)
	assert.Zero(t, *rec.NPV)
}

func TestParseRecord_CodeFence(t *testing.T) {
	rec, err := ParseRecord("Here is the data:\n```json\n{\"project_name\": \"Aurora\", \"npv\": 12.5}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Aurora", *rec.ProjectName)
	assert.Equal(t, 12.5, *rec.NPV)
}

func TestParseRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "prose", in: "I could not find any project data in this document."},
		{name: "truncated", in: `{"project_name": "Aurora", "npv": 4`},
		{name: "array", in: `["Aurora", "Acme Mining"]`},
		{name: "null", in: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.in)
			assert.Error(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestParseRecord_SchemaViolations(t *testing.T) {
	commodities := make([]string, 25)
	for i := range commodities {
		commodities[i] = fmt.Sprintf("%q", fmt.Sprintf("Metal%d", i))
	}
	tests := []struct {
		name string
		in   string
	}{
		{name: "negative capex", in: `{"capex": -450}`},
		{name: "negative opex", in: `{"opex": "-12.5"}`},
		{name: "negative mine life", in: `{"mine_life": -3}`},
		{name: "implausible mine life", in: `{"mine_life": 950}`},
		{name: "irr below total loss", in: `{"irr": -150}`},
		{name: "too many commodities", in: `{"commodities": [` + strings.Join(commodities, ",") + `]}`},
		{name: "long company name", in: `{"company_name": "` + strings.Repeat("A", 300) + `"}`},
		{name: "long stage", in: `{"stage": "` + strings.Repeat("feasibility ", 10) + `"}`},
		{name: "long commodity", in: `{"commodities": ["` + strings.Repeat("x", 80) + `"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.in)
			assert.ErrorContains(t, err, "extract: response does not match schema")
			assert.Nil(t, rec)
		})
	}
}

func TestParseRecord_SchemaBoundaries(t *testing.T) {
	rec, err := ParseRecord(`{"capex": 0, "irr": -100, "mine_life": 200, "stage": "Pre-Feasibility Study"}`)
	require.NoError(t, err)
	assert.Zero(t, *rec.Capex)
	assert.Equal(t, -100.0, *rec.IRR)
	assert.Equal(t, 200.0, *rec.MineLife)
	assert.Equal(t, "Pre-Feasibility Study", *rec.Stage)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`  {"a":1} trailing`))
	assert.Equal(t, "no braces", cleanJSON("no braces"))
}
