package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/henok-g/staff-report-api/internal/models"
)

// The mock binds as postgres so Rebind resolves to $N placeholders, matching
// what the repositories send in production.
func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func reportRows(report models.MonthlyReport) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "report_month", "report_year", "department_id", "status", "version", "created_at", "created_by", "submitted_at", "submitted_by", "rejected_at", "rejection_reason"}).
		AddRow(report.ID, report.Month, report.Year, report.DepartmentID, report.Status, report.Version, time.Now(), report.CreatedBy, nil, nil, nil, nil)
}

func TestReportRepositoryFindByPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	deptID := "dept-cs"
	mock.ExpectQuery(regexp.QuoteMeta("FROM monthly_reports WHERE report_month = $1 AND report_year = $2 AND department_id = $3")).
		WithArgs(3, 2025, deptID).
		WillReturnRows(reportRows(models.MonthlyReport{ID: "r1", Month: 3, Year: 2025, DepartmentID: &deptID, Status: models.ReportStatusDraft, Version: 1, CreatedBy: "u1"}))

	report, err := repo.FindByPeriod(context.Background(), 3, 2025, &deptID)
	require.NoError(t, err)
	require.Equal(t, "r1", report.ID)

	// College scope selects the NULL department row.
	mock.ExpectQuery(regexp.QuoteMeta("FROM monthly_reports WHERE report_month = $1 AND report_year = $2 AND department_id IS NULL")).
		WithArgs(3, 2025).
		WillReturnRows(reportRows(models.MonthlyReport{ID: "r2", Month: 3, Year: 2025, Status: models.ReportStatusDraft, Version: 1, CreatedBy: "u1"}))

	rollup, err := repo.FindByPeriod(context.Background(), 3, 2025, nil)
	require.NoError(t, err)
	require.Nil(t, rollup.DepartmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateWithEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO monthly_reports")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_entries")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deptID := "dept-cs"
	report := &models.MonthlyReport{Month: 3, Year: 2025, DepartmentID: &deptID, CreatedBy: "u1"}
	entries := []models.ReportEntry{
		{StaffID: "s1", FullName: "Abebe Bekele", Sex: "M", CollegeName: "College", Category: models.StaffCategoryAcademic, CurrentStatus: "ACTIVE"},
		{StaffID: "s2", FullName: "Mulu Alemu", Sex: "F", CollegeName: "College", Category: models.StaffCategoryTechnical, CurrentStatus: "ACTIVE"},
	}
	require.NoError(t, repo.CreateWithEntries(context.Background(), report, entries))

	// Defaults are filled before the insert.
	require.NotEmpty(t, report.ID)
	require.Equal(t, models.ReportStatusDraft, report.Status)
	require.Equal(t, 1, report.Version)
	for _, e := range entries {
		require.Equal(t, report.ID, e.ReportID)
		require.NotEmpty(t, e.ID)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now().UTC()
	actor := "u1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE monthly_reports SET status = $1, submitted_at = $2, submitted_by = $3 WHERE id = $4 AND status IN ($5,$6)")).
		WithArgs(models.ReportStatusSubmitted, now, actor, "r1", models.ReportStatusDraft, models.ReportStatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), UpdateReportStatusParams{
		ID:          "r1",
		Status:      models.ReportStatusSubmitted,
		AllowedFrom: []models.ReportStatus{models.ReportStatusDraft, models.ReportStatusRejected},
		SubmittedAt: &now,
		SubmittedBy: &actor,
	})
	require.NoError(t, err)

	// A stale status guard affects zero rows and surfaces as ErrNoRows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE monthly_reports SET status = $1 WHERE id = $2 AND status IN ($3)")).
		WithArgs(models.ReportStatusApproved, "r1", models.ReportStatusSubmitted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), UpdateReportStatusParams{
		ID:          "r1",
		Status:      models.ReportStatusApproved,
		AllowedFrom: []models.ReportStatus{models.ReportStatusSubmitted},
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM monthly_reports WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "r1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM monthly_reports WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListApprovedByPeriod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	deptID := "dept-cs"
	mock.ExpectQuery(regexp.QuoteMeta("department_id IS NOT NULL AND status = $3")).
		WithArgs(3, 2025, models.ReportStatusApproved).
		WillReturnRows(reportRows(models.MonthlyReport{ID: "r1", Month: 3, Year: 2025, DepartmentID: &deptID, Status: models.ReportStatusApproved, Version: 1, CreatedBy: "u1"}))

	approved, err := repo.ListApprovedByPeriod(context.Background(), 3, 2025)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListEntriesByReportIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "report_id", "staff_id", "staff_code", "full_name", "sex", "college_name", "department_code", "department_name", "specialization", "education_level", "academic_rank", "category", "current_status", "remark", "created_at"}).
		AddRow("e1", "r1", "s1", nil, "Abebe Bekele", "M", "College", "CS", "Computer Science", "", "PhD", "Lecturer", "ACADEMIC", "ACTIVE", nil, time.Now()).
		AddRow("e2", "r2", "s2", nil, "Mulu Alemu", "F", "College", "EE", "Electrical Engineering", "", "MSc", "", "TECHNICAL", "ACTIVE", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_entries WHERE report_id IN ($1, $2)")).
		WithArgs("r1", "r2").
		WillReturnRows(rows)

	entries, err := repo.ListEntriesByReportIDs(context.Background(), []string{"r1", "r2"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// No IDs short-circuits without touching the database.
	empty, err := repo.ListEntriesByReportIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateEntry(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	status := "ON_LEAVE"
	remark := "sabbatical"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_entries SET current_status = $1, remark = $2 WHERE id = $3")).
		WithArgs(status, remark, "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateEntry(context.Background(), "e1", &status, &remark))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_entries SET remark = $1 WHERE id = $2")).
		WithArgs(remark, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.UpdateEntry(context.Background(), "missing", nil, &remark), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
