package models

// MatrixFilter represents query parameters for the matrix and stream endpoints
type MatrixFilter struct {
	Query string `form:"q"` // case-insensitive substring of the segment name
}

// CreateSegmentRequest represents the body for creating a segment part
type CreateSegmentRequest struct {
	Name     string `json:"name" binding:"required"`
	Part     string `json:"part" binding:"required"` // display name, e.g. "Base Slab"
	Status   string `json:"status"`                  // defaults to NOT_STARTED
	Progress int    `json:"progress"`
	Remarks  string `json:"remarks"`
}

// UpdateSegmentRequest represents the body for editing a segment part
type UpdateSegmentRequest struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
	Remarks  *string `json:"remarks"`
}

// ReportRequest represents the body for requesting a progress report
type ReportRequest struct {
	Refresh bool `json:"refresh"`
}

// UnlockRequest represents the body for unlocking admin mode
type UnlockRequest struct {
	Password string `json:"password" binding:"required"`
}
