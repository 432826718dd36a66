package models

import "time"

// SurveyStatus captures the lifecycle state of a surveyed location.
type SurveyStatus string

const (
	StatusPending         SurveyStatus = "pending"
	StatusReviewed        SurveyStatus = "reviewed"
	StatusApprovedCommune SurveyStatus = "approved_commune"
	StatusApprovedCentral SurveyStatus = "approved_central"
	StatusRejected        SurveyStatus = "rejected"
)

// WorkflowAction enumerates the operations the workflow engine accepts.
type WorkflowAction string

const (
	ActionSubmit  WorkflowAction = "submit"
	ActionReview  WorkflowAction = "review"
	ActionApprove WorkflowAction = "approve"
	ActionReject  WorkflowAction = "reject"
	ActionForward WorkflowAction = "forward"
)

// SurveyLocation is a surveyed real-property location awaiting or holding an
// issued identifier. Records are created by the external field-sync endpoint
// and mutated only through workflow transitions.
type SurveyLocation struct {
	ID                 string       `db:"id" json:"id"`
	Latitude           float64      `db:"latitude" json:"latitude"`
	Longitude          float64      `db:"longitude" json:"longitude"`
	Accuracy           *float64     `db:"accuracy" json:"accuracy,omitempty"`
	ProvinceCode       string       `db:"province_code" json:"province_code"`
	WardCode           string       `db:"ward_code" json:"ward_code"`
	ProvinceID         int          `db:"province_id" json:"province_id"`
	WardID             int          `db:"ward_id" json:"ward_id"`
	Address            string       `db:"address" json:"address"`
	AddressDetail      *string      `db:"address_detail" json:"address_detail,omitempty"`
	Status             SurveyStatus `db:"status" json:"status"`
	LocationIdentifier *string      `db:"location_identifier" json:"location_identifier,omitempty"`
	CreatedBy          string       `db:"created_by" json:"created_by"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// SurveyFilter constrains listing queries.
type SurveyFilter struct {
	Status       []SurveyStatus
	ProvinceCode string
	WardCode     string
	CreatedBy    string
	Limit        int
	Offset       int
}

// StatusCount aggregates records per workflow status.
type StatusCount struct {
	Status SurveyStatus `db:"status" json:"status"`
	Count  int64        `db:"count" json:"count"`
}
