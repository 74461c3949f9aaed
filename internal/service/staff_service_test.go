package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
)

type mockStaffStore struct {
	members map[string]*models.Staff
}

func newMockStaffStore() *mockStaffStore {
	return &mockStaffStore{members: make(map[string]*models.Staff)}
}

func (m *mockStaffStore) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	var out []models.Staff
	for _, member := range m.members {
		if filter.DepartmentID != "" && member.DepartmentID != filter.DepartmentID {
			continue
		}
		out = append(out, *member)
	}
	return out, len(out), nil
}

func (m *mockStaffStore) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if member, ok := m.members[id]; ok {
		copied := *member
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffStore) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for _, member := range m.members {
		if member.StaffCode != nil && *member.StaffCode == code && member.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStaffStore) Create(ctx context.Context, staff *models.Staff) error {
	m.members[staff.ID] = staff
	return nil
}

func (m *mockStaffStore) CreateMany(ctx context.Context, staff []models.Staff) error {
	for i := range staff {
		member := staff[i]
		m.members[member.ID] = &member
	}
	return nil
}

func (m *mockStaffStore) Update(ctx context.Context, staff *models.Staff) error {
	if _, ok := m.members[staff.ID]; !ok {
		return sql.ErrNoRows
	}
	m.members[staff.ID] = staff
	return nil
}

func (m *mockStaffStore) Deactivate(ctx context.Context, id string) error {
	member, ok := m.members[id]
	if !ok {
		return sql.ErrNoRows
	}
	member.Active = false
	return nil
}

func newStaffFixture() (*StaffService, *mockStaffStore) {
	store := newMockStaffStore()
	departments := &mockDepartmentReader{departments: map[string]*models.Department{
		"dept-cs": {ID: "dept-cs", Code: "CS", Name: "Computer Science"},
	}}
	return NewStaffService(store, departments, nil, "College of Computing", zap.NewNop()), store
}

func TestStaffServiceCreateDefaults(t *testing.T) {
	svc, _ := newStaffFixture()

	member, err := svc.Create(context.Background(), dto.CreateStaffRequest{
		FullName:     "Abebe Bekele",
		Sex:          "M",
		Category:     models.StaffCategoryAcademic,
		DepartmentID: "dept-cs",
	}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.StaffStatusActive, member.CurrentStatus)
	assert.Equal(t, "College of Computing", member.CollegeName)
	assert.True(t, member.Active)
}

func TestStaffServiceCreateValidation(t *testing.T) {
	svc, _ := newStaffFixture()
	ctx := context.Background()
	var appErr *appErrors.Error

	_, err := svc.Create(ctx, dto.CreateStaffRequest{FullName: "X", Sex: "M", Category: "CONSULTANT", DepartmentID: "dept-cs"}, adminClaims())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Create(ctx, dto.CreateStaffRequest{FullName: "X", Sex: "M", Category: models.StaffCategoryAcademic, DepartmentID: "dept-missing"}, adminClaims())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	// Department heads may only manage their own roster.
	_, err = svc.Create(ctx, dto.CreateStaffRequest{FullName: "X", Sex: "M", Category: models.StaffCategoryAcademic, DepartmentID: "dept-cs"}, headClaims("dept-ee"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestStaffServiceCreateDuplicateCode(t *testing.T) {
	svc, _ := newStaffFixture()
	ctx := context.Background()

	req := dto.CreateStaffRequest{StaffCode: strPtr("CS-001"), FullName: "Abebe Bekele", Sex: "M", Category: models.StaffCategoryAcademic, DepartmentID: "dept-cs"}
	_, err := svc.Create(ctx, req, adminClaims())
	require.NoError(t, err)

	req.FullName = "Someone Else"
	_, err = svc.Create(ctx, req, adminClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestStaffServiceUpdateMergesFields(t *testing.T) {
	svc, _ := newStaffFixture()
	ctx := context.Background()

	member, err := svc.Create(ctx, dto.CreateStaffRequest{
		FullName: "Abebe Bekele", Sex: "M", Category: models.StaffCategoryAcademic, DepartmentID: "dept-cs",
	}, adminClaims())
	require.NoError(t, err)

	rank := "Assistant Professor"
	updated, err := svc.Update(ctx, member.ID, dto.UpdateStaffRequest{AcademicRank: &rank}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "Assistant Professor", updated.AcademicRank)
	assert.Equal(t, "Abebe Bekele", updated.FullName)
}

func TestStaffServiceDeactivate(t *testing.T) {
	svc, store := newStaffFixture()
	ctx := context.Background()

	member, err := svc.Create(ctx, dto.CreateStaffRequest{
		FullName: "Abebe Bekele", Sex: "M", Category: models.StaffCategoryAcademic, DepartmentID: "dept-cs",
	}, adminClaims())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, member.ID, adminClaims()))
	assert.False(t, store.members[member.ID].Active)

	err = svc.Deactivate(ctx, "missing", adminClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStaffServiceImportCSV(t *testing.T) {
	svc, store := newStaffFixture()

	input := strings.Join([]string{
		"staff_code,full_name,sex,category,education_level,current_status",
		"CS-001,Abebe Bekele,M,ACADEMIC,PhD,ACTIVE",
		"CS-002,Mulu Alemu,F,ADMINISTRATIVE,BA,",
		",No Category,F,,,",
		"CS-001,Duplicate Code,M,ACADEMIC,,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(input), "dept-cs", adminClaims())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 4, result.Errors[0].Row)
	assert.Contains(t, result.Errors[1].Message, "duplicates row")
	assert.Len(t, store.members, 2)

	// Blank status defaults to ACTIVE.
	for _, member := range store.members {
		assert.Equal(t, models.StaffStatusActive, member.CurrentStatus)
		assert.Equal(t, "dept-cs", member.DepartmentID)
	}
}

func TestStaffServiceImportCSVHeaderValidation(t *testing.T) {
	svc, _ := newStaffFixture()

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("staff_code,full_name\nCS-001,Abebe"), "dept-cs", adminClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "sex")
}

func TestStaffServiceListScopesHeads(t *testing.T) {
	svc, store := newStaffFixture()
	code := "EE-001"
	store.members["s1"] = &models.Staff{ID: "s1", FullName: "A", DepartmentID: "dept-cs", Active: true}
	store.members["s2"] = &models.Staff{ID: "s2", StaffCode: &code, FullName: "B", DepartmentID: "dept-ee", Active: true}

	scoped, total, err := svc.List(context.Background(), models.StaffFilter{}, headClaims("dept-cs"))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, scoped, 1)
	assert.Equal(t, "dept-cs", scoped[0].DepartmentID)

	_, err = svc.Get(context.Background(), "s2", headClaims("dept-cs"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
