package api

import "time"

type DeficiencyCategories struct {
	Safety  []string `json:"safety"`
	Urgent  []string `json:"urgent"`
	Routine []string `json:"routine"`
}

// Insights aggregates the optional AI analysis of a report.
type Insights struct {
	HasAIAnalysis        bool                 `json:"has_ai_analysis"`
	ExecutiveSummary     string               `json:"executive_summary"`
	DeficiencyCategories DeficiencyCategories `json:"deficiency_categories"`
	PrioritySummary      string               `json:"priority_summary,omitempty"`
}

type AnalyzeResponse struct {
	Success  bool     `json:"success"`
	Analysis Insights `json:"analysis"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	AIEnabled bool      `json:"ai_enabled"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
