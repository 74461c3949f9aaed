package dto

import "github.com/henok-g/staff-report-api/internal/models"

// ExportRequest queues a document render of a report.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" binding:"required"`
}

// ExportJobResponse acknowledges a queued export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse reports job progress and the download URL when ready.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
