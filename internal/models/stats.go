package models

import "time"

// DashboardStats aggregates workflow progress for the portal dashboard.
type DashboardStats struct {
	ProvinceCode      string                 `json:"province_code,omitempty"`
	WardCode          string                 `json:"ward_code,omitempty"`
	ByStatus          map[SurveyStatus]int64 `json:"by_status"`
	TotalLocations    int64                  `json:"total_locations"`
	IssuedIdentifiers int64                  `json:"issued_identifiers"`
	GeneratedAt       time.Time              `json:"generated_at"`
}
