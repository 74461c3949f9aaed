package models

import "time"

// StaffCategory enumerates the fixed staff classifications.
type StaffCategory string

const (
	StaffCategoryAcademic       StaffCategory = "ACADEMIC"
	StaffCategoryAdministrative StaffCategory = "ADMINISTRATIVE"
	StaffCategoryTechnical      StaffCategory = "TECHNICAL"
	StaffCategorySupport        StaffCategory = "SUPPORT"
)

// ValidStaffCategory reports whether the value belongs to the enumeration.
func ValidStaffCategory(c StaffCategory) bool {
	switch c {
	case StaffCategoryAcademic, StaffCategoryAdministrative, StaffCategoryTechnical, StaffCategorySupport:
		return true
	default:
		return false
	}
}

// Conventional current_status values. The column is free text; these are the
// values the roster UI offers.
const (
	StaffStatusActive     = "ACTIVE"
	StaffStatusOnLeave    = "ON_LEAVE"
	StaffStatusStudyLeave = "STUDY_LEAVE"
	StaffStatusResigned   = "RESIGNED"
	StaffStatusRetired    = "RETIRED"
)

// Staff is one roster record. Report entries copy these fields at snapshot
// time and never read back.
type Staff struct {
	ID             string        `db:"id" json:"id"`
	StaffCode      *string       `db:"staff_code" json:"staff_code,omitempty"`
	FullName       string        `db:"full_name" json:"full_name"`
	Sex            string        `db:"sex" json:"sex"`
	Specialization string        `db:"specialization" json:"specialization"`
	EducationLevel string        `db:"education_level" json:"education_level"`
	AcademicRank   string        `db:"academic_rank" json:"academic_rank"`
	Category       StaffCategory `db:"category" json:"category"`
	CurrentStatus  string        `db:"current_status" json:"current_status"`
	Remark         *string       `db:"remark" json:"remark,omitempty"`
	DepartmentID   string        `db:"department_id" json:"department_id"`
	CollegeName    string        `db:"college_name" json:"college_name"`
	Active         bool          `db:"active" json:"active"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// StaffFilter captures filtering options for roster listings.
type StaffFilter struct {
	DepartmentID string
	Category     StaffCategory
	Status       string
	Search       string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
