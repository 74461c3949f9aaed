package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, req dto.GenerateReportRequest, actor *models.JWTClaims) (*models.MonthlyReport, error)
	Submit(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error)
	Approve(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error)
	Reject(ctx context.Context, reportID, reason string, actor *models.JWTClaims) (*models.MonthlyReport, error)
	Delete(ctx context.Context, reportID string, actor *models.JWTClaims) error
	GenerateRollup(ctx context.Context, req dto.RollupRequest, actor *models.JWTClaims) (*models.MonthlyReport, error)
	Get(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error)
	List(ctx context.Context, query dto.ReportQuery, actor *models.JWTClaims) ([]models.ReportSummary, error)
	ListEntries(ctx context.Context, reportID string, actor *models.JWTClaims) ([]models.ReportEntry, error)
	UpdateEntry(ctx context.Context, reportID, entryID string, req dto.UpdateEntryRequest, actor *models.JWTClaims) (*models.ReportEntry, error)
}

// ReportHandler exposes REST endpoints for monthly reports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Generate godoc
// @Summary Generate a monthly report snapshot
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.GenerateReportRequest true "Report period and scope"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Generate(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, report, nil)
}

// List godoc
// @Summary List monthly reports
// @Tags Reports
// @Produce json
// @Param month query int false "Month 1-12"
// @Param year query int false "Four digit year"
// @Param department_id query string false "Department scope"
// @Param college query bool false "Only college rollups"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.ReportQuery{
		DepartmentID: strings.TrimSpace(c.Query("department_id")),
	}
	if raw := c.Query("month"); raw != "" {
		query.Month, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("year"); raw != "" {
		query.Year, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("college"); raw != "" {
		query.CollegeOnly, _ = strconv.ParseBool(raw)
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]models.ReportStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.ReportStatus(part))
		}
		query.Status = statuses
	}
	reports, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get report detail
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Submit godoc
// @Summary Submit a report for review
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/submit [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Submit(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Approve godoc
// @Summary Approve a submitted report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/approve [post]
func (h *ReportHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Reject godoc
// @Summary Reject a submitted report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.RejectReportRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/reject [post]
func (h *ReportHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RejectReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required"))
		return
	}
	report, err := h.service.Reject(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Reason), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete a report and its entries
// @Tags Reports
// @Param id path string true "Report ID"
// @Success 204 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Rollup godoc
// @Summary Generate the college rollup for a period
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.RollupRequest true "Rollup period"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /reports/rollup [post]
func (h *ReportHandler) Rollup(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RollupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rollup payload"))
		return
	}
	report, err := h.service.GenerateRollup(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, report, nil)
}

// ListEntries godoc
// @Summary List snapshot entries of a report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/entries [get]
func (h *ReportHandler) ListEntries(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.ListEntries(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// UpdateEntry godoc
// @Summary Edit the status or remark of a snapshot entry
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param entryId path string true "Entry ID"
// @Param payload body dto.UpdateEntryRequest true "Entry fields"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/entries/{entryId} [patch]
func (h *ReportHandler) UpdateEntry(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid entry payload"))
		return
	}
	entry, err := h.service.UpdateEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
