package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	"github.com/henok-g/staff-report-api/internal/service"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/response"
)

type exportService interface {
	CreateJob(ctx context.Context, reportID string, req dto.ExportRequest, actor *models.JWTClaims) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes the export pipeline endpoints.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Create godoc
// @Summary Queue a document export of a report
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ExportRequest true "Export format"
// @Success 202 {object} response.Envelope
// @Router /reports/{id}/export [post]
func (h *ExportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeFor(download.Format), download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}

func contentTypeFor(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatCSV:
		return "text/csv"
	case models.ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case models.ExportFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
