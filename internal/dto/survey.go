package dto

// SurveyQuery captures list filters from query parameters.
type SurveyQuery struct {
	Status       string `form:"status"`
	ProvinceCode string `form:"province_code"`
	WardCode     string `form:"ward_code"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// DeactivateIdentifierRequest retires an issued identifier.
type DeactivateIdentifierRequest struct {
	Reason string `json:"reason" binding:"required"`
}
