package dto

import "github.com/henok-g/staff-report-api/internal/models"

// CreateStaffRequest adds one staff member to the roster.
type CreateStaffRequest struct {
	StaffCode      *string              `json:"staff_code,omitempty"`
	FullName       string               `json:"full_name" binding:"required"`
	Sex            string               `json:"sex" binding:"required,oneof=M F"`
	Specialization string               `json:"specialization"`
	EducationLevel string               `json:"education_level"`
	AcademicRank   string               `json:"academic_rank"`
	Category       models.StaffCategory `json:"category" binding:"required"`
	CurrentStatus  string               `json:"current_status"`
	Remark         *string              `json:"remark,omitempty"`
	DepartmentID   string               `json:"department_id" binding:"required"`
}

// UpdateStaffRequest edits mutable roster fields. Nil fields stay untouched.
type UpdateStaffRequest struct {
	StaffCode      *string               `json:"staff_code,omitempty"`
	FullName       *string               `json:"full_name,omitempty"`
	Sex            *string               `json:"sex,omitempty"`
	Specialization *string               `json:"specialization,omitempty"`
	EducationLevel *string               `json:"education_level,omitempty"`
	AcademicRank   *string               `json:"academic_rank,omitempty"`
	Category       *models.StaffCategory `json:"category,omitempty"`
	CurrentStatus  *string               `json:"current_status,omitempty"`
	Remark         *string               `json:"remark,omitempty"`
	DepartmentID   *string               `json:"department_id,omitempty"`
	Active         *bool                 `json:"active,omitempty"`
}

// ImportRowError reports one rejected CSV row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a roster CSV import.
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}
