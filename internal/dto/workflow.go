package dto

import "github.com/geoviet/surveyid-api/internal/models"

// WorkflowActionRequest is the payload for a single workflow transition.
type WorkflowActionRequest struct {
	Action          models.WorkflowAction  `json:"action" binding:"required"`
	Notes           string                 `json:"notes"`
	RejectionReason models.RejectionReason `json:"rejection_reason"`
	CustomReason    string                 `json:"custom_reason"`
}

// WorkflowResult reports the outcome of a transition attempt.
type WorkflowResult struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	NewStatus models.SurveyStatus `json:"new_status,omitempty"`
	Code      string              `json:"code,omitempty"`
}

// PermissionCheckResponse answers the pre-flight authorization check.
type PermissionCheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// BatchApproveRequest applies approve to each listed record independently.
type BatchApproveRequest struct {
	LocationIDs []string `json:"location_ids" binding:"required,min=1"`
	Notes       string   `json:"notes"`
}

// BatchApproveError describes a single failed item in a batch.
type BatchApproveError struct {
	LocationID string `json:"location_id"`
	Message    string `json:"message"`
}

// BatchApproveResult aggregates per-item outcomes without aborting the batch.
type BatchApproveResult struct {
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Errors     []BatchApproveError `json:"errors,omitempty"`
}
