package models

import "time"

// LocationIdentifier is the globally unique code issued to a centrally
// approved location. The full code is 12 ASCII digits: a 2-digit province
// code, a 4-digit ward code, and a 6-digit random sequence. AdminCode is
// frozen at issuance time so later boundary re-codes never rewrite history.
type LocationIdentifier struct {
	ID                 string     `db:"id" json:"id"`
	Code               string     `db:"code" json:"code"`
	AdminCode          string     `db:"admin_code" json:"admin_code"`
	SequenceNumber     string     `db:"sequence_number" json:"sequence_number"`
	SurveyLocationID   string     `db:"survey_location_id" json:"survey_location_id"`
	AssignedBy         string     `db:"assigned_by" json:"assigned_by"`
	AssignedAt         time.Time  `db:"assigned_at" json:"assigned_at"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	DeactivationReason *string    `db:"deactivation_reason" json:"deactivation_reason,omitempty"`
	DeactivatedAt      *time.Time `db:"deactivated_at" json:"deactivated_at,omitempty"`
}
