package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	"github.com/henok-g/staff-report-api/internal/repository"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/jobs"
	"github.com/henok-g/staff-report-api/pkg/storage"
)

type mockExportJobStore struct {
	jobs map[string]*models.ExportJob
}

func newMockExportJobStore() *mockExportJobStore {
	return &mockExportJobStore{jobs: make(map[string]*models.ExportJob)}
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if job, ok := m.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockExportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockExportJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type mockReportReader struct {
	reports map[string]*models.MonthlyReport
	entries map[string][]models.ReportEntry
}

func (m *mockReportReader) GetByID(ctx context.Context, id string) (*models.MonthlyReport, error) {
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportReader) ListEntries(ctx context.Context, reportID string) ([]models.ReportEntry, error) {
	return m.entries[reportID], nil
}

type failingGenerator struct {
	err error
}

func (g *failingGenerator) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	return nil, g.err
}

func newExportFixture(t *testing.T) (*ExportService, *mockExportJobStore, *mockQueue, *mockReportReader) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	deptID := "dept-cs"
	reports := &mockReportReader{
		reports: map[string]*models.MonthlyReport{
			"r1": {ID: "r1", Month: 3, Year: 2025, DepartmentID: &deptID, Status: models.ReportStatusApproved},
		},
		entries: map[string][]models.ReportEntry{
			"r1": {
				{ID: "e1", ReportID: "r1", FullName: "Abebe Bekele", Sex: "M", CollegeName: "College of Computing", DepartmentCode: "CS", DepartmentName: "Computer Science", Category: models.StaffCategoryAcademic, CurrentStatus: "ACTIVE"},
			},
		},
	}
	jobStore := newMockExportJobStore()
	queue := &mockQueue{}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(jobStore, reports, queue, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop())
	return svc, jobStore, queue, reports
}

func TestExportServiceCreateJob(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, "r1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
	assert.Contains(t, jobStore.jobs, resp.ID)
}

func TestExportServiceCreateJobValidation(t *testing.T) {
	svc, _, _, _ := newExportFixture(t)
	ctx := context.Background()
	var appErr *appErrors.Error

	_, err := svc.CreateJob(ctx, "r1", dto.ExportRequest{Format: "docx"}, adminClaims())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.CreateJob(ctx, "missing", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	// Heads cannot export another department's report.
	_, err = svc.CreateJob(ctx, "r1", dto.ExportRequest{Format: models.ExportFormatCSV}, headClaims("dept-ee"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)
	queue.enqueueErr = errors.New("queue stopped")

	_, err := svc.CreateJob(context.Background(), "r1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.Error(t, err)
	require.Len(t, jobStore.jobs, 1)
	for _, job := range jobStore.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportServiceGetStatusOwnership(t *testing.T) {
	svc, jobStore, _, _ := newExportFixture(t)
	ctx := context.Background()
	jobStore.jobs["j1"] = &models.ExportJob{ID: "j1", ReportID: "r1", Format: models.ExportFormatCSV, Status: models.ExportStatusProcessing, Progress: 10, CreatedBy: "head-1"}

	resp, err := svc.GetStatus(ctx, "j1", headClaims("dept-cs"))
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusProcessing, resp.Status)

	_, err = svc.GetStatus(ctx, "j1", oversightClaims())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	// Admins see every job.
	_, err = svc.GetStatus(ctx, "j1", adminClaims())
	require.NoError(t, err)
}

func TestExportWorkerFinishesJob(t *testing.T) {
	svc, jobStore, _, _ := newExportFixture(t)
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, "r1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)

	worker := NewExportWorker(jobStore, svc, 3, zap.NewNop())
	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: resp.ID, Type: "csv"}))

	job := jobStore.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.True(t, strings.HasPrefix(*job.ResultURL, "/api/v1/export/"))
	require.NotNil(t, job.FinishedAt)
}

func TestExportWorkerRetriesThenFails(t *testing.T) {
	jobStore := newMockExportJobStore()
	jobStore.jobs["j1"] = &models.ExportJob{ID: "j1", ReportID: "r1", Format: models.ExportFormatPDF, Status: models.ExportStatusQueued, CreatedBy: "admin-1"}
	worker := NewExportWorker(jobStore, &failingGenerator{err: errors.New("render blew up")}, 2, zap.NewNop())
	ctx := context.Background()

	// First attempt goes back to the queue.
	err := worker.Handle(ctx, jobs.Job{ID: "j1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, jobStore.jobs["j1"].Status)
	require.NotNil(t, jobStore.jobs["j1"].ErrorMessage)

	// Exhausted attempts mark the job failed.
	err = worker.Handle(ctx, jobs.Job{ID: "j1", Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, jobStore.jobs["j1"].Status)
	assert.Equal(t, 100, jobStore.jobs["j1"].Progress)
	require.NotNil(t, jobStore.jobs["j1"].FinishedAt)
}

func TestExportServiceDownloadRoundTrip(t *testing.T) {
	svc, jobStore, _, _ := newExportFixture(t)
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, "r1", dto.ExportRequest{Format: models.ExportFormatCSV}, adminClaims())
	require.NoError(t, err)
	worker := NewExportWorker(jobStore, svc, 3, zap.NewNop())
	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: resp.ID, Type: "csv"}))

	token := (*jobStore.jobs[resp.ID].ResultURL)[len("/api/v1/export/"):]
	download, err := svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, models.ExportFormatCSV, download.Format)
	payload, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Abebe Bekele")
	assert.Contains(t, string(payload), "Full Name")
}

func TestExportServiceDownloadRejectsBadToken(t *testing.T) {
	svc, _, _, _ := newExportFixture(t)

	_, err := svc.ResolveDownload(context.Background(), "not-a-token")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestExportServiceBuildFilename(t *testing.T) {
	svc, _, _, _ := newExportFixture(t)

	deptID := "dept cs/../legacy"
	report := &models.MonthlyReport{ID: "r1", Month: 3, Year: 2025, DepartmentID: &deptID}
	name := svc.buildFilename(report, models.ExportFormatCSV)
	assert.True(t, strings.HasPrefix(name, "staff_report_202503_dept_cs-.-legacy_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "..")

	college := &models.MonthlyReport{ID: "r2", Month: 12, Year: 2025}
	assert.True(t, strings.HasPrefix(svc.buildFilename(college, models.ExportFormatPDF), "staff_report_202512_college_"))
}

func TestExportServiceRecoverPendingJobs(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)
	jobStore.jobs["j1"] = &models.ExportJob{ID: "j1", ReportID: "r1", Format: models.ExportFormatCSV, Status: models.ExportStatusQueued}
	jobStore.jobs["j2"] = &models.ExportJob{ID: "j2", ReportID: "r1", Format: models.ExportFormatPDF, Status: models.ExportStatusFinished}

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "j1", queue.jobs[0].ID)
}
