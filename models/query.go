// ABOUTME: Read-side query shapes shared by the repository and the workspace
// ABOUTME: Defines list filters, pagination, per-entity pages, and the aggregate stats projection
package models

// StatusAll is the status filter value meaning "no filter".
const StatusAll = "all"

// ListFilter narrows and pages a list fetch. Zero Page/PageSize fall back
// to the repository defaults. Stage applies to deal queries only.
type ListFilter struct {
	Search   string
	Status   string
	Stage    string
	Page     int
	PageSize int
}

// Pagination describes the page a list fetch returned.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type ContactPage struct {
	Data       []Contact  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type CompanyPage struct {
	Data       []Company  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type DealPage struct {
	Data       []Deal     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// StageStat is one slice of the pipeline breakdown.
type StageStat struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Stats is the read-only aggregate projection. It is never mutated by the
// workspace, only refreshed after mutations that can change it.
type Stats struct {
	TotalContacts  int                  `json:"total_contacts"`
	TotalCompanies int                  `json:"total_companies"`
	PipelineValue  float64              `json:"pipeline_value"`
	WinRate        float64              `json:"win_rate"`
	DealsByStage   map[string]StageStat `json:"deals_by_stage"`
}
