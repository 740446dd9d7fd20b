package model

import "time"

// Project lifecycle defaults applied when a record leaves them unset.
const (
	StageUnknown        = "Unknown"
	ProjectStatusActive = "Active"
	UnknownCompany      = "Unknown"
)

// Development stages the oracle is asked to choose from.
const (
	StageExploration    = "Exploration"
	StagePreFeasibility = "Pre-Feasibility"
	StageFeasibility    = "Feasibility"
	StageDevelopment    = "Development"
	StageProduction     = "Production"
)

// Stages lists the closed set of stage values in lifecycle order.
var Stages = []string{
	StageExploration,
	StagePreFeasibility,
	StageFeasibility,
	StageDevelopment,
	StageProduction,
}

// IsKnownStage reports whether s is one of Stages.
func IsKnownStage(s string) bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// Company is a mining company that owns projects.
type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Ticker      *string   `json:"ticker"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Project is one ingested technical report's project record. Created once
// per processed document and never updated afterwards.
type Project struct {
	ID                  string    `json:"id"`
	CompanyID           string    `json:"company_id"`
	Name                string    `json:"name"`
	Location            *string   `json:"location"`
	Commodities         []string  `json:"commodities"`
	NPV                 *float64  `json:"npv"`
	IRR                 *float64  `json:"irr"`
	Capex               *float64  `json:"capex"`
	Opex                *float64  `json:"opex"`
	Resource            *string   `json:"resource"`
	Reserve             *string   `json:"reserve"`
	MineLife            *float64  `json:"mine_life"`
	ProductionRate      *string   `json:"production_rate"`
	Stage               string    `json:"stage"`
	Status              string    `json:"status"`
	Description         string    `json:"description"`
	DocumentStoragePath string    `json:"document_storage_path"`
	URLs                []string  `json:"urls"`
	Watchlist           bool      `json:"watchlist"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Highlight is a quotable metric derived from a project's extracted record.
type Highlight struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	DataType  string `json:"data_type"`
	Value     string `json:"value"`
	Quote     string `json:"quote"`
	Page      int    `json:"page"`
}
