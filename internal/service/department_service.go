package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
)

type departmentStore interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
}

// DepartmentService manages the department catalog.
type DepartmentService struct {
	repo        departmentStore
	logger      *zap.Logger
	collegeName string
}

// NewDepartmentService constructs the department service.
func NewDepartmentService(repo departmentStore, collegeName string, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, collegeName: collegeName, logger: logger}
}

// List returns all departments.
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// Get returns a single department.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return department, nil
}

// Create registers a new department. Codes are unique.
func (s *DepartmentService) Create(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error) {
	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "department code already in use")
	}
	department := &models.Department{
		ID:          uuid.NewString(),
		Code:        req.Code,
		Name:        req.Name,
		CollegeName: req.CollegeName,
		Active:      true,
	}
	if department.CollegeName == "" {
		department.CollegeName = s.collegeName
	}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return department, nil
}

// Update edits a department. Existing report snapshots keep the old names.
func (s *DepartmentService) Update(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*models.Department, error) {
	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil && *req.Code != department.Code {
		exists, err := s.repo.ExistsByCode(ctx, *req.Code, department.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department code already in use")
		}
		department.Code = *req.Code
	}
	if req.Name != nil {
		department.Name = *req.Name
	}
	if req.CollegeName != nil {
		department.CollegeName = *req.CollegeName
	}
	if req.Active != nil {
		department.Active = *req.Active
	}
	if err := s.repo.Update(ctx, department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return department, nil
}
