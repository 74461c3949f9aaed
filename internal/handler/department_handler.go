package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/response"
)

type departmentService interface {
	List(ctx context.Context) ([]models.Department, error)
	Get(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error)
	Update(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*models.Department, error)
}

// DepartmentHandler exposes REST endpoints for departments.
type DepartmentHandler struct {
	service departmentService
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(service departmentService) *DepartmentHandler {
	return &DepartmentHandler{service: service}
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// Get godoc
// @Summary Get department detail
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	department, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// Create godoc
// @Summary Register a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body dto.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid department payload"))
		return
	}
	department, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, department, nil)
}

// Update godoc
// @Summary Edit a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body dto.UpdateDepartmentRequest true "Department fields"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [patch]
func (h *DepartmentHandler) Update(c *gin.Context) {
	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid department payload"))
		return
	}
	department, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}
