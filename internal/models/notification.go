package models

import "time"

// NotificationType labels the workflow event that produced a notification.
type NotificationType string

const (
	NotificationTypeReportSubmitted NotificationType = "REPORT_SUBMITTED"
	NotificationTypeReportApproved  NotificationType = "REPORT_APPROVED"
	NotificationTypeReportRejected  NotificationType = "REPORT_REJECTED"
)

// Notification is a one-way record addressed to a role group. Delivery is
// best-effort; a failed dispatch never fails the transition that produced it.
type Notification struct {
	ID           string           `db:"id" json:"id"`
	Type         NotificationType `db:"type" json:"type"`
	Title        string           `db:"title" json:"title"`
	Message      string           `db:"message" json:"message"`
	DepartmentID *string          `db:"department_id" json:"department_id,omitempty"`
	TargetRole   UserRole         `db:"target_role" json:"target_role"`
	PerformedBy  string           `db:"performed_by" json:"performed_by"`
	Read         bool             `db:"read" json:"read"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter constrains notification listings.
type NotificationFilter struct {
	TargetRole   UserRole
	DepartmentID string
	UnreadOnly   bool
	Limit        int
	Offset       int
}
