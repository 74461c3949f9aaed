package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
)

type staffStore interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, staff *models.Staff) error
	CreateMany(ctx context.Context, staff []models.Staff) error
	Update(ctx context.Context, staff *models.Staff) error
	Deactivate(ctx context.Context, id string) error
}

// StaffService manages the staff roster.
type StaffService struct {
	repo        staffStore
	departments departmentReader
	audit       auditRecorder
	logger      *zap.Logger
	collegeName string
}

// NewStaffService constructs the staff service.
func NewStaffService(repo staffStore, departments departmentReader, audit auditRecorder, collegeName string, logger *zap.Logger) *StaffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, departments: departments, audit: audit, collegeName: collegeName, logger: logger}
}

// List returns roster members matching the filter. Department heads are
// pinned to their own department.
func (s *StaffService) List(ctx context.Context, filter models.StaffFilter, actor *models.JWTClaims) ([]models.Staff, int, error) {
	if actor.Role == models.RoleDepartmentHead {
		if actor.DepartmentID == nil {
			return nil, 0, appErrors.ErrForbidden
		}
		filter.DepartmentID = *actor.DepartmentID
	}
	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	return staff, total, nil
}

// Get returns a single roster member.
func (s *StaffService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Staff, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff member")
	}
	if actor.Role == models.RoleDepartmentHead {
		if actor.DepartmentID == nil || *actor.DepartmentID != member.DepartmentID {
			return nil, appErrors.ErrForbidden
		}
	}
	return member, nil
}

// Create adds one staff member.
func (s *StaffService) Create(ctx context.Context, req dto.CreateStaffRequest, actor *models.JWTClaims) (*models.Staff, error) {
	if !models.ValidStaffCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid staff category")
	}
	if err := s.checkDepartmentAccess(ctx, req.DepartmentID, actor); err != nil {
		return nil, err
	}
	if req.StaffCode != nil && *req.StaffCode != "" {
		exists, err := s.repo.ExistsByCode(ctx, *req.StaffCode, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check staff code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "staff code already in use")
		}
	}

	member := &models.Staff{
		ID:             uuid.NewString(),
		StaffCode:      req.StaffCode,
		FullName:       req.FullName,
		Sex:            req.Sex,
		Specialization: req.Specialization,
		EducationLevel: req.EducationLevel,
		AcademicRank:   req.AcademicRank,
		Category:       req.Category,
		CurrentStatus:  req.CurrentStatus,
		Remark:         req.Remark,
		DepartmentID:   req.DepartmentID,
		CollegeName:    s.collegeName,
		Active:         true,
	}
	if member.CurrentStatus == "" {
		member.CurrentStatus = models.StaffStatusActive
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff member")
	}
	return member, nil
}

// Update edits mutable roster fields. Snapshot entries in existing reports
// are unaffected.
func (s *StaffService) Update(ctx context.Context, id string, req dto.UpdateStaffRequest, actor *models.JWTClaims) (*models.Staff, error) {
	member, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if req.Category != nil {
		if !models.ValidStaffCategory(*req.Category) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid staff category")
		}
		member.Category = *req.Category
	}
	if req.DepartmentID != nil && *req.DepartmentID != member.DepartmentID {
		if err := s.checkDepartmentAccess(ctx, *req.DepartmentID, actor); err != nil {
			return nil, err
		}
		member.DepartmentID = *req.DepartmentID
	}
	if req.StaffCode != nil {
		if *req.StaffCode != "" {
			exists, err := s.repo.ExistsByCode(ctx, *req.StaffCode, member.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check staff code")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "staff code already in use")
			}
		}
		member.StaffCode = req.StaffCode
	}
	if req.FullName != nil {
		member.FullName = *req.FullName
	}
	if req.Sex != nil {
		member.Sex = *req.Sex
	}
	if req.Specialization != nil {
		member.Specialization = *req.Specialization
	}
	if req.EducationLevel != nil {
		member.EducationLevel = *req.EducationLevel
	}
	if req.AcademicRank != nil {
		member.AcademicRank = *req.AcademicRank
	}
	if req.CurrentStatus != nil {
		member.CurrentStatus = *req.CurrentStatus
	}
	if req.Remark != nil {
		member.Remark = req.Remark
	}
	if req.Active != nil {
		member.Active = *req.Active
	}

	if err := s.repo.Update(ctx, member); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update staff member")
	}
	return member, nil
}

// Deactivate soft-removes a roster member. Future snapshots exclude them;
// past snapshots keep their frozen entry.
func (s *StaffService) Deactivate(ctx context.Context, id string, actor *models.JWTClaims) error {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate staff member")
	}
	return nil
}

// ImportCSV bulk-loads roster rows for one department. Rows that fail
// validation are reported per row; valid rows are inserted in one
// transaction.
func (s *StaffService) ImportCSV(ctx context.Context, r io.Reader, departmentID string, actor *models.JWTClaims) (*dto.ImportResult, error) {
	if err := s.checkDepartmentAccess(ctx, departmentID, actor); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv file is empty or unreadable")
	}
	columns, err := mapImportHeader(header)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResult{}
	var members []models.Staff
	seenCodes := make(map[string]int)
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, Message: "malformed csv row"})
			continue
		}
		member, rowErr := s.parseImportRow(ctx, record, columns, departmentID, seenCodes, rowNum)
		if rowErr != "" {
			result.Skipped++
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, Message: rowErr})
			continue
		}
		members = append(members, *member)
	}

	if len(members) > 0 {
		if err := s.repo.CreateMany(ctx, members); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import staff rows")
		}
	}
	result.Imported = len(members)

	if s.audit != nil {
		deptID := departmentID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionStaffImport,
			Resource:   "staff",
			ResourceID: &deptID,
			NewValues:  []byte(fmt.Sprintf(`{"imported":%d,"skipped":%d}`, result.Imported, result.Skipped)),
		}); err != nil {
			s.logger.Warn("failed to record staff import audit log", zap.Error(err))
		}
	}
	return result, nil
}

func (s *StaffService) parseImportRow(ctx context.Context, record []string, columns map[string]int, departmentID string, seenCodes map[string]int, rowNum int) (*models.Staff, string) {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	fullName := get("full_name")
	if fullName == "" {
		return nil, "full_name is required"
	}
	sex := strings.ToUpper(get("sex"))
	if sex != "M" && sex != "F" {
		return nil, "sex must be M or F"
	}
	category := models.StaffCategory(strings.ToUpper(get("category")))
	if !models.ValidStaffCategory(category) {
		return nil, fmt.Sprintf("unknown category %q", get("category"))
	}

	member := models.Staff{
		ID:             uuid.NewString(),
		FullName:       fullName,
		Sex:            sex,
		Specialization: get("specialization"),
		EducationLevel: get("education_level"),
		AcademicRank:   get("academic_rank"),
		Category:       category,
		CurrentStatus:  get("current_status"),
		DepartmentID:   departmentID,
		CollegeName:    s.collegeName,
		Active:         true,
	}
	if member.CurrentStatus == "" {
		member.CurrentStatus = models.StaffStatusActive
	}
	if code := get("staff_code"); code != "" {
		if firstRow, dup := seenCodes[code]; dup {
			return nil, fmt.Sprintf("staff_code duplicates row %d", firstRow)
		}
		seenCodes[code] = rowNum
		exists, err := s.repo.ExistsByCode(ctx, code, "")
		if err != nil {
			return nil, "failed to check staff code"
		}
		if exists {
			return nil, fmt.Sprintf("staff_code %q already in use", code)
		}
		member.StaffCode = &code
	}
	if remark := get("remark"); remark != "" {
		member.Remark = &remark
	}
	return &member, ""
}

func mapImportHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"full_name", "sex", "category"} {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("csv header missing required column %q", required))
		}
	}
	return columns, nil
}

func (s *StaffService) checkDepartmentAccess(ctx context.Context, departmentID string, actor *models.JWTClaims) error {
	if actor.Role == models.RoleDepartmentHead {
		if actor.DepartmentID == nil || *actor.DepartmentID != departmentID {
			return appErrors.ErrForbidden
		}
	}
	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve department")
	}
	return nil
}
