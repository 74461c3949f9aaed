package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserService handles account administration.
type UserService struct {
	repo   userStore
	logger *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userStore, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns accounts matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, total, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create registers a new account. Department heads must carry a department.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.User, error) {
	if !validUserRole(req.Role) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role")
	}
	if req.Role == models.RoleDepartmentHead && (req.DepartmentID == nil || *req.DepartmentID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department heads require a department")
	}
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}

// Update edits an account.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		if !validUserRole(*req.Role) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role")
		}
		user.Role = *req.Role
	}
	if req.DepartmentID != nil {
		user.DepartmentID = req.DepartmentID
	}
	if user.Role == models.RoleDepartmentHead && (user.DepartmentID == nil || *user.DepartmentID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department heads require a department")
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}

func validUserRole(role models.UserRole) bool {
	switch role {
	case models.RoleAdmin, models.RoleDepartmentHead, models.RoleOversight:
		return true
	default:
		return false
	}
}
