package dto

import "github.com/henok-g/staff-report-api/internal/models"

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Email        string          `json:"email" binding:"required,email"`
	Password     string          `json:"password" binding:"required,min=6"`
	FullName     string          `json:"full_name" binding:"required"`
	Role         models.UserRole `json:"role" binding:"required"`
	DepartmentID *string         `json:"department_id,omitempty"`
}

// UpdateUserRequest edits an account. Nil fields stay untouched.
type UpdateUserRequest struct {
	Email        *string          `json:"email,omitempty"`
	FullName     *string          `json:"full_name,omitempty"`
	Role         *models.UserRole `json:"role,omitempty"`
	DepartmentID *string          `json:"department_id,omitempty"`
	Active       *bool            `json:"active,omitempty"`
}
