package dto

import "github.com/henok-g/staff-report-api/internal/models"

// GenerateReportRequest asks for a new monthly report snapshot.
type GenerateReportRequest struct {
	Month        int     `json:"month" binding:"required,min=1,max=12"`
	Year         int     `json:"year" binding:"required,min=1000,max=9999"`
	DepartmentID *string `json:"department_id,omitempty"`
	Regenerate   bool    `json:"regenerate"`
}

// RollupRequest asks for a college-level rollup of approved reports.
type RollupRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=1000,max=9999"`
}

// RejectReportRequest carries the mandatory rejection reason.
type RejectReportRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// UpdateEntryRequest edits the two mutable fields of a snapshot entry.
type UpdateEntryRequest struct {
	CurrentStatus *string `json:"current_status,omitempty"`
	Remark        *string `json:"remark,omitempty"`
}

// ReportQuery filters report listings.
type ReportQuery struct {
	Month        int
	Year         int
	DepartmentID string
	CollegeOnly  bool
	Status       []models.ReportStatus
}

