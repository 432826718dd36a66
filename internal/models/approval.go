package models

import "time"

// HistoryAction labels one workflow transition in the approval trail.
type HistoryAction string

const (
	HistorySubmitted HistoryAction = "submitted"
	HistoryReviewed  HistoryAction = "reviewed"
	HistoryApproved  HistoryAction = "approved"
	HistoryRejected  HistoryAction = "rejected"
	HistoryForwarded HistoryAction = "forwarded"
)

// ApprovalHistoryEntry is an append-only audit record of one successful
// workflow transition. Entries are never updated or removed.
type ApprovalHistoryEntry struct {
	ID               string        `db:"id" json:"id"`
	SurveyLocationID string        `db:"survey_location_id" json:"survey_location_id"`
	Action           HistoryAction `db:"action" json:"action"`
	ActorID          string        `db:"actor_id" json:"actor_id"`
	ActorRole        UserRole      `db:"actor_role" json:"actor_role"`
	PreviousStatus   SurveyStatus  `db:"previous_status" json:"previous_status"`
	NewStatus        SurveyStatus  `db:"new_status" json:"new_status"`
	Notes            *string       `db:"notes" json:"notes,omitempty"`
	Metadata         []byte        `db:"metadata" json:"metadata,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// RejectionReason identifies an entry in the fixed rejection catalog.
type RejectionReason string

const (
	ReasonIncompleteInfo     RejectionReason = "incomplete_info"
	ReasonIncorrectLocation  RejectionReason = "incorrect_location"
	ReasonPoorPhotoQuality   RejectionReason = "poor_photo_quality"
	ReasonDuplicateSurvey    RejectionReason = "duplicate_survey"
	ReasonInvalidBoundary    RejectionReason = "invalid_boundary"
	ReasonWrongObjectType    RejectionReason = "wrong_object_type"
	ReasonMissingEntryPoints RejectionReason = "missing_entry_points"
	ReasonOwnerVerification  RejectionReason = "owner_verification_failed"
	ReasonOther              RejectionReason = "other"
)

// rejectionLabels maps catalog entries to the labels shown to surveyors.
var rejectionLabels = map[RejectionReason]string{
	ReasonIncompleteInfo:     "Thông tin chưa đầy đủ",
	ReasonIncorrectLocation:  "Vị trí không chính xác",
	ReasonPoorPhotoQuality:   "Chất lượng ảnh kém",
	ReasonDuplicateSurvey:    "Khảo sát trùng lặp",
	ReasonInvalidBoundary:    "Ranh giới không hợp lệ",
	ReasonWrongObjectType:    "Sai loại đối tượng",
	ReasonMissingEntryPoints: "Thiếu điểm ra vào",
	ReasonOwnerVerification:  "Không xác minh được chủ sở hữu",
	ReasonOther:              "Lý do khác",
}

// Label returns the display label for the reason, or the raw value when the
// reason is not part of the catalog.
func (r RejectionReason) Label() string {
	if label, ok := rejectionLabels[r]; ok {
		return label
	}
	return string(r)
}

// Valid reports whether the reason belongs to the fixed catalog.
func (r RejectionReason) Valid() bool {
	_, ok := rejectionLabels[r]
	return ok
}
