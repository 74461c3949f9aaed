package models

import "time"

// ExportFormat enumerates supported document export formats.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ExportStatus tracks an export job through its pipeline.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is one queued document render of a monthly report.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	ReportID     string       `db:"report_id" json:"report_id"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	ResultURL    *string      `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}
