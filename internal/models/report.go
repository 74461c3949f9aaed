package models

import "time"

// ReportStatus captures the lifecycle state of a monthly report.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "DRAFT"
	ReportStatusSubmitted ReportStatus = "SUBMITTED"
	ReportStatusApproved  ReportStatus = "APPROVED"
	ReportStatusRejected  ReportStatus = "REJECTED"
)

// ReportEvent is a lifecycle action applied to a report.
type ReportEvent string

const (
	ReportEventSubmit  ReportEvent = "SUBMIT"
	ReportEventApprove ReportEvent = "APPROVE"
	ReportEventReject  ReportEvent = "REJECT"
)

// CanTransition reports whether applying event to the current status is legal.
// APPROVED is terminal; REJECTED may only be resubmitted.
func (s ReportStatus) CanTransition(event ReportEvent) bool {
	switch event {
	case ReportEventSubmit:
		return s == ReportStatusDraft || s == ReportStatusRejected
	case ReportEventApprove, ReportEventReject:
		return s == ReportStatusSubmitted
	default:
		return false
	}
}

// NextStatus returns the status the event leads to.
func (e ReportEvent) NextStatus() ReportStatus {
	switch e {
	case ReportEventSubmit:
		return ReportStatusSubmitted
	case ReportEventApprove:
		return ReportStatusApproved
	case ReportEventReject:
		return ReportStatusRejected
	default:
		return ""
	}
}

// MonthlyReport is one generated headcount report for a (month, year, scope)
// key. A nil DepartmentID denotes a college-wide rollup report.
type MonthlyReport struct {
	ID              string       `db:"id" json:"id"`
	Month           int          `db:"report_month" json:"month"`
	Year            int          `db:"report_year" json:"year"`
	DepartmentID    *string      `db:"department_id" json:"department_id,omitempty"`
	Status          ReportStatus `db:"status" json:"status"`
	Version         int          `db:"version" json:"version"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	CreatedBy       string       `db:"created_by" json:"created_by"`
	SubmittedAt     *time.Time   `db:"submitted_at" json:"submitted_at,omitempty"`
	SubmittedBy     *string      `db:"submitted_by" json:"submitted_by,omitempty"`
	RejectedAt      *time.Time   `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason *string      `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

// IsCollegeScope reports whether this is a college-wide rollup.
func (r *MonthlyReport) IsCollegeScope() bool {
	return r.DepartmentID == nil
}

// ReportEntry is the frozen snapshot of one staff member captured when the
// owning report was generated. Later roster edits never propagate here; only
// CurrentStatus and Remark remain editable after the snapshot.
type ReportEntry struct {
	ID             string        `db:"id" json:"id"`
	ReportID       string        `db:"report_id" json:"report_id"`
	StaffID        string        `db:"staff_id" json:"staff_id"`
	StaffCode      *string       `db:"staff_code" json:"staff_code,omitempty"`
	FullName       string        `db:"full_name" json:"full_name"`
	Sex            string        `db:"sex" json:"sex"`
	CollegeName    string        `db:"college_name" json:"college_name"`
	DepartmentCode string        `db:"department_code" json:"department_code"`
	DepartmentName string        `db:"department_name" json:"department_name"`
	Specialization string        `db:"specialization" json:"specialization"`
	EducationLevel string        `db:"education_level" json:"education_level"`
	AcademicRank   string        `db:"academic_rank" json:"academic_rank"`
	Category       StaffCategory `db:"category" json:"category"`
	CurrentStatus  string        `db:"current_status" json:"current_status"`
	Remark         *string       `db:"remark" json:"remark,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// ReportSummary pairs a report with its snapshot size for list views.
type ReportSummary struct {
	MonthlyReport
	EntryCount int `db:"entry_count" json:"entry_count"`
}

// ReportFilter constrains report listing queries.
type ReportFilter struct {
	Month        int
	Year         int
	DepartmentID string
	CollegeOnly  bool
	Status       []ReportStatus
	Limit        int
	Offset       int
}
