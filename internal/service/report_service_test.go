package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	"github.com/henok-g/staff-report-api/internal/repository"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
)

type mockReportStore struct {
	reports map[string]*models.MonthlyReport
	entries map[string][]models.ReportEntry
}

func newMockReportStore() *mockReportStore {
	return &mockReportStore{
		reports: make(map[string]*models.MonthlyReport),
		entries: make(map[string][]models.ReportEntry),
	}
}

func (m *mockReportStore) FindByPeriod(ctx context.Context, month, year int, departmentID *string) (*models.MonthlyReport, error) {
	for _, r := range m.reports {
		if r.Month != month || r.Year != year {
			continue
		}
		if departmentID == nil && r.DepartmentID == nil {
			return r, nil
		}
		if departmentID != nil && r.DepartmentID != nil && *departmentID == *r.DepartmentID {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportStore) GetByID(ctx context.Context, id string) (*models.MonthlyReport, error) {
	if r, ok := m.reports[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportStore) List(ctx context.Context, filter models.ReportFilter) ([]models.ReportSummary, error) {
	var out []models.ReportSummary
	for _, r := range m.reports {
		if filter.DepartmentID != "" && (r.DepartmentID == nil || *r.DepartmentID != filter.DepartmentID) {
			continue
		}
		if filter.CollegeOnly && r.DepartmentID != nil {
			continue
		}
		out = append(out, models.ReportSummary{MonthlyReport: *r, EntryCount: len(m.entries[r.ID])})
	}
	return out, nil
}

func (m *mockReportStore) ListApprovedByPeriod(ctx context.Context, month, year int) ([]models.MonthlyReport, error) {
	var out []models.MonthlyReport
	for _, r := range m.reports {
		if r.Month == month && r.Year == year && r.DepartmentID != nil && r.Status == models.ReportStatusApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReportStore) CreateWithEntries(ctx context.Context, report *models.MonthlyReport, entries []models.ReportEntry) error {
	m.reports[report.ID] = report
	m.entries[report.ID] = entries
	return nil
}

func (m *mockReportStore) UpdateStatus(ctx context.Context, params repository.UpdateReportStatusParams) error {
	r, ok := m.reports[params.ID]
	if !ok {
		return sql.ErrNoRows
	}
	allowed := false
	for _, from := range params.AllowedFrom {
		if r.Status == from {
			allowed = true
		}
	}
	if !allowed {
		return sql.ErrNoRows
	}
	r.Status = params.Status
	r.SubmittedAt = params.SubmittedAt
	r.SubmittedBy = params.SubmittedBy
	r.RejectedAt = params.RejectedAt
	r.RejectionReason = params.Reason
	return nil
}

func (m *mockReportStore) Delete(ctx context.Context, id string) error {
	delete(m.reports, id)
	delete(m.entries, id)
	return nil
}

func (m *mockReportStore) ListEntries(ctx context.Context, reportID string) ([]models.ReportEntry, error) {
	return m.entries[reportID], nil
}

func (m *mockReportStore) ListEntriesByReportIDs(ctx context.Context, reportIDs []string) ([]models.ReportEntry, error) {
	var out []models.ReportEntry
	for _, id := range reportIDs {
		out = append(out, m.entries[id]...)
	}
	return out, nil
}

func (m *mockReportStore) GetEntry(ctx context.Context, entryID string) (*models.ReportEntry, error) {
	for _, entries := range m.entries {
		for _, e := range entries {
			if e.ID == entryID {
				copied := e
				return &copied, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportStore) UpdateEntry(ctx context.Context, entryID string, currentStatus, remark *string) error {
	for _, entries := range m.entries {
		for i := range entries {
			if entries[i].ID != entryID {
				continue
			}
			if currentStatus != nil {
				entries[i].CurrentStatus = *currentStatus
			}
			if remark != nil {
				entries[i].Remark = remark
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

type mockRoster struct {
	staff []models.Staff
}

func (m *mockRoster) ListByScope(ctx context.Context, departmentID *string) ([]models.Staff, error) {
	if departmentID == nil {
		return m.staff, nil
	}
	var out []models.Staff
	for _, s := range m.staff {
		if s.DepartmentID == *departmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockDepartmentReader struct {
	departments map[string]*models.Department
}

func (m *mockDepartmentReader) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type mockNotifier struct {
	emitted []models.Notification
}

func (m *mockNotifier) Emit(ctx context.Context, notification models.Notification) {
	m.emitted = append(m.emitted, notification)
}

func strPtr(s string) *string { return &s }

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func headClaims(deptID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "head-1", Role: models.RoleDepartmentHead, DepartmentID: &deptID}
}

func oversightClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "oversight-1", Role: models.RoleOversight}
}

func newReportFixture() (*ReportService, *mockReportStore, *mockNotifier) {
	store := newMockReportStore()
	roster := &mockRoster{staff: []models.Staff{
		{ID: "s1", StaffCode: strPtr("CS-001"), FullName: "Abebe Bekele", Sex: "M", Category: models.StaffCategoryAcademic, CurrentStatus: "ACTIVE", DepartmentID: "dept-cs", CollegeName: "College of Computing", Active: true},
		{ID: "s2", FullName: "Mulu Alemu", Sex: "F", Category: models.StaffCategoryAdministrative, CurrentStatus: "ON_LEAVE", DepartmentID: "dept-cs", Active: true},
		{ID: "s3", FullName: "Sara Tesfaye", Sex: "F", Category: models.StaffCategoryTechnical, CurrentStatus: "ACTIVE", DepartmentID: "dept-ee", Active: true},
	}}
	departments := &mockDepartmentReader{departments: map[string]*models.Department{
		"dept-cs": {ID: "dept-cs", Code: "CS", Name: "Computer Science"},
		"dept-ee": {ID: "dept-ee", Code: "EE", Name: "Electrical Engineering"},
	}}
	notifier := &mockNotifier{}
	svc := NewReportService(store, roster, departments, notifier, nil, nil, "College of Computing", zap.NewNop())
	return svc, store, notifier
}

func TestReportServiceGenerateSnapshotsRoster(t *testing.T) {
	svc, store, _ := newReportFixture()

	report, err := svc.Generate(context.Background(), dto.GenerateReportRequest{
		Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs"),
	}, headClaims("dept-cs"))
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDraft, report.Status)
	assert.Equal(t, 1, report.Version)

	entries := store.entries[report.ID]
	require.Len(t, entries, 2)
	assert.Equal(t, "Computer Science", entries[0].DepartmentName)
	assert.Equal(t, "CS", entries[0].DepartmentCode)
	// Staff without an explicit college fall back to the configured name.
	assert.Equal(t, "College of Computing", entries[1].CollegeName)
}

func TestReportServiceGenerateConflictsWithoutRegenerate(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()
	req := dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}

	_, err := svc.Generate(ctx, req, headClaims("dept-cs"))
	require.NoError(t, err)

	_, err = svc.Generate(ctx, req, headClaims("dept-cs"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrReportExists.Code, appErr.Code)
}

func TestReportServiceRegenerateReplacesDraft(t *testing.T) {
	svc, store, _ := newReportFixture()
	ctx := context.Background()
	req := dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}

	first, err := svc.Generate(ctx, req, headClaims("dept-cs"))
	require.NoError(t, err)

	req.Regenerate = true
	second, err := svc.Generate(ctx, req, headClaims("dept-cs"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotContains(t, store.reports, first.ID)
	assert.Equal(t, 1, second.Version)
}

func TestReportServiceRegenerateSubmittedForbidden(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()
	req := dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}

	report, err := svc.Generate(ctx, req, headClaims("dept-cs"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)

	req.Regenerate = true
	_, err = svc.Generate(ctx, req, headClaims("dept-cs"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestReportServiceGenerateScopeDenied(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	// Heads cannot generate for another department.
	_, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-ee")}, headClaims("dept-cs"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	// Nor for the college scope.
	_, err = svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025}, headClaims("dept-cs"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestReportServiceSubmitNotifiesOversight(t *testing.T) {
	svc, _, notifier := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, headClaims("dept-cs"))
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	require.Len(t, notifier.emitted, 1)
	assert.Equal(t, models.NotificationTypeReportSubmitted, notifier.emitted[0].Type)
	assert.Equal(t, models.RoleOversight, notifier.emitted[0].TargetRole)
}

func TestReportServiceSubmitTwiceRejected(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, headClaims("dept-cs"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestReportServiceApproveRequiresOversight(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, headClaims("dept-cs"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, report.ID, headClaims("dept-cs"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	approved, err := svc.Approve(ctx, report.ID, oversightClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, approved.Status)
}

func TestReportServiceRejectRequiresReason(t *testing.T) {
	svc, _, notifier := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, headClaims("dept-cs"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, report.ID, "", oversightClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	// Whitespace does not count as a reason, and nothing is written.
	_, err = svc.Reject(ctx, report.ID, "   \t", oversightClaims())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	current, err := svc.Get(ctx, report.ID, oversightClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, current.Status)

	rejected, err := svc.Reject(ctx, report.ID, "headcount does not match payroll", oversightClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "headcount does not match payroll", *rejected.RejectionReason)

	last := notifier.emitted[len(notifier.emitted)-1]
	assert.Equal(t, models.NotificationTypeReportRejected, last.Type)
	assert.Contains(t, last.Message, "headcount does not match payroll")
}

func TestReportServiceResubmitAfterRejection(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, headClaims("dept-cs"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)
	_, err = svc.Reject(ctx, report.ID, "fix remarks", oversightClaims())
	require.NoError(t, err)

	resubmitted, err := svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, resubmitted.Status)
}

func TestReportServiceApproveDraftRejected(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, headClaims("dept-cs"))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, report.ID, oversightClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestReportServiceDeleteRules(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, headClaims("dept-cs"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, headClaims("dept-cs"))
	require.NoError(t, err)

	// Heads cannot delete a submitted report.
	err = svc.Delete(ctx, report.ID, headClaims("dept-cs"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	// Admins can.
	require.NoError(t, svc.Delete(ctx, report.ID, adminClaims()))
	_, err = svc.Get(ctx, report.ID, adminClaims())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportServiceRollupUnionsApprovedEntries(t *testing.T) {
	svc, store, _ := newReportFixture()
	ctx := context.Background()

	// Approve one report per department for March 2025.
	for _, dept := range []string{"dept-cs", "dept-ee"} {
		report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr(dept)}, adminClaims())
		require.NoError(t, err)
		_, err = svc.Submit(ctx, report.ID, adminClaims())
		require.NoError(t, err)
		_, err = svc.Approve(ctx, report.ID, oversightClaims())
		require.NoError(t, err)
	}

	rollup, err := svc.GenerateRollup(ctx, dto.RollupRequest{Month: 3, Year: 2025}, oversightClaims())
	require.NoError(t, err)
	assert.Nil(t, rollup.DepartmentID)
	assert.Equal(t, models.ReportStatusDraft, rollup.Status)

	entries := store.entries[rollup.ID]
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, rollup.ID, e.ReportID)
	}
}

func TestReportServiceRollupEntriesStayFrozen(t *testing.T) {
	svc, store, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, adminClaims())
	require.NoError(t, err)

	// Edit a snapshot entry before approval; the rollup must carry the edit,
	// not the live roster value.
	entry := store.entries[report.ID][0]
	_, err = svc.UpdateEntry(ctx, report.ID, entry.ID, dto.UpdateEntryRequest{CurrentStatus: strPtr("RESIGNED")}, adminClaims())
	require.NoError(t, err)

	_, err = svc.Submit(ctx, report.ID, adminClaims())
	require.NoError(t, err)
	_, err = svc.Approve(ctx, report.ID, oversightClaims())
	require.NoError(t, err)

	rollup, err := svc.GenerateRollup(ctx, dto.RollupRequest{Month: 3, Year: 2025}, oversightClaims())
	require.NoError(t, err)

	var statuses []string
	for _, e := range store.entries[rollup.ID] {
		statuses = append(statuses, e.CurrentStatus)
	}
	assert.Contains(t, statuses, "RESIGNED")
}

func TestReportServiceRollupRequiresApprovedReports(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	_, err := svc.GenerateRollup(ctx, dto.RollupRequest{Month: 3, Year: 2025}, oversightClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoApprovedReports.Code, appErr.Code)

	_, err = svc.GenerateRollup(ctx, dto.RollupRequest{Month: 3, Year: 2025}, headClaims("dept-cs"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestReportServiceRollupConflict(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, adminClaims())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, adminClaims())
	require.NoError(t, err)
	_, err = svc.Approve(ctx, report.ID, oversightClaims())
	require.NoError(t, err)

	_, err = svc.GenerateRollup(ctx, dto.RollupRequest{Month: 3, Year: 2025}, oversightClaims())
	require.NoError(t, err)

	_, err = svc.GenerateRollup(ctx, dto.RollupRequest{Month: 3, Year: 2025}, oversightClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrReportExists.Code, appErr.Code)
}

func TestReportServiceUpdateEntryFrozenWhenApproved(t *testing.T) {
	svc, store, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, adminClaims())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, adminClaims())
	require.NoError(t, err)
	_, err = svc.Approve(ctx, report.ID, oversightClaims())
	require.NoError(t, err)

	entry := store.entries[report.ID][0]
	_, err = svc.UpdateEntry(ctx, report.ID, entry.ID, dto.UpdateEntryRequest{Remark: strPtr("late edit")}, adminClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestReportServiceUpdateEntryValidation(t *testing.T) {
	svc, store, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, adminClaims())
	require.NoError(t, err)
	entry := store.entries[report.ID][0]

	_, err = svc.UpdateEntry(ctx, report.ID, entry.ID, dto.UpdateEntryRequest{}, adminClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	updated, err := svc.UpdateEntry(ctx, report.ID, entry.ID, dto.UpdateEntryRequest{Remark: strPtr("covering night classes")}, adminClaims())
	require.NoError(t, err)
	require.NotNil(t, updated.Remark)
	assert.Equal(t, "covering night classes", *updated.Remark)
}

func TestReportServiceListScopesHeads(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	_, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-cs")}, adminClaims())
	require.NoError(t, err)
	_, err = svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-ee")}, adminClaims())
	require.NoError(t, err)

	all, err := svc.List(ctx, dto.ReportQuery{}, adminClaims())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.List(ctx, dto.ReportQuery{}, headClaims("dept-cs"))
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "dept-cs", *scoped[0].DepartmentID)
}

func TestReportServiceHeadReadsCollegeRollup(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()

	report, err := svc.Generate(ctx, dto.GenerateReportRequest{Month: 3, Year: 2025, DepartmentID: strPtr("dept-ee")}, adminClaims())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, report.ID, adminClaims())
	require.NoError(t, err)
	_, err = svc.Approve(ctx, report.ID, oversightClaims())
	require.NoError(t, err)

	rollup, err := svc.GenerateRollup(ctx, dto.RollupRequest{Month: 3, Year: 2025}, oversightClaims())
	require.NoError(t, err)

	// Another department's report stays hidden.
	_, err = svc.Get(ctx, report.ID, headClaims("dept-cs"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	// The college rollup is readable by any head.
	got, err := svc.Get(ctx, rollup.ID, headClaims("dept-cs"))
	require.NoError(t, err)
	assert.Nil(t, got.DepartmentID)
}
