package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/response"
)

type staffService interface {
	List(ctx context.Context, filter models.StaffFilter, actor *models.JWTClaims) ([]models.Staff, int, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Staff, error)
	Create(ctx context.Context, req dto.CreateStaffRequest, actor *models.JWTClaims) (*models.Staff, error)
	Update(ctx context.Context, id string, req dto.UpdateStaffRequest, actor *models.JWTClaims) (*models.Staff, error)
	Deactivate(ctx context.Context, id string, actor *models.JWTClaims) error
	ImportCSV(ctx context.Context, r io.Reader, departmentID string, actor *models.JWTClaims) (*dto.ImportResult, error)
}

// StaffHandler exposes REST endpoints for the staff roster.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(service staffService) *StaffHandler {
	return &StaffHandler{service: service}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Param department_id query string false "Department scope"
// @Param category query string false "Staff category"
// @Param status query string false "Current status"
// @Param search query string false "Name search"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.StaffFilter{
		DepartmentID: strings.TrimSpace(c.Query("department_id")),
		Status:       strings.TrimSpace(c.Query("status")),
		Search:       strings.TrimSpace(c.Query("search")),
		SortBy:       strings.TrimSpace(c.Query("sort_by")),
		SortOrder:    strings.TrimSpace(c.Query("sort_order")),
	}
	if raw := c.Query("category"); raw != "" {
		filter.Category = models.StaffCategory(strings.ToUpper(raw))
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err == nil {
			filter.Active = &active
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	staff, total, err := h.service.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get one staff member
// @Tags Staff
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	member, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Add a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body dto.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid staff payload"))
		return
	}
	member, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, member, nil)
}

// Update godoc
// @Summary Edit a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param id path string true "Staff ID"
// @Param payload body dto.UpdateStaffRequest true "Staff fields"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [patch]
func (h *StaffHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid staff payload"))
		return
	}
	member, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Deactivate godoc
// @Summary Deactivate a staff member
// @Tags Staff
// @Param id path string true "Staff ID"
// @Success 204 {object} response.Envelope
// @Router /staff/{id} [delete]
func (h *StaffHandler) Deactivate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Bulk import staff from CSV
// @Tags Staff
// @Accept multipart/form-data
// @Produce json
// @Param department_id formData string true "Target department"
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Router /staff/import [post]
func (h *StaffHandler) Import(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	departmentID := strings.TrimSpace(c.PostForm("department_id"))
	if departmentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "department_id is required"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "csv file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.service.ImportCSV(c.Request.Context(), file, departmentID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
