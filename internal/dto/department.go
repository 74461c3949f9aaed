package dto

// CreateDepartmentRequest registers a department.
type CreateDepartmentRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CollegeName string `json:"college_name"`
}

// UpdateDepartmentRequest edits a department. Nil fields stay untouched.
type UpdateDepartmentRequest struct {
	Code        *string `json:"code,omitempty"`
	Name        *string `json:"name,omitempty"`
	CollegeName *string `json:"college_name,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}
