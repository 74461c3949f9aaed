package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/middleware"
	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
)

type reportServiceMock struct {
	report       *models.MonthlyReport
	summaries    []models.ReportSummary
	entries      []models.ReportEntry
	entry        *models.ReportEntry
	err          error
	lastGenerate dto.GenerateReportRequest
	lastQuery    dto.ReportQuery
	lastReason   string
	lastReportID string
}

func (m *reportServiceMock) Generate(ctx context.Context, req dto.GenerateReportRequest, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	m.lastGenerate = req
	return m.report, m.err
}

func (m *reportServiceMock) Submit(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	m.lastReportID = reportID
	return m.report, m.err
}

func (m *reportServiceMock) Approve(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	m.lastReportID = reportID
	return m.report, m.err
}

func (m *reportServiceMock) Reject(ctx context.Context, reportID, reason string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	m.lastReportID = reportID
	m.lastReason = reason
	return m.report, m.err
}

func (m *reportServiceMock) Delete(ctx context.Context, reportID string, actor *models.JWTClaims) error {
	m.lastReportID = reportID
	return m.err
}

func (m *reportServiceMock) GenerateRollup(ctx context.Context, req dto.RollupRequest, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	return m.report, m.err
}

func (m *reportServiceMock) Get(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	m.lastReportID = reportID
	return m.report, m.err
}

func (m *reportServiceMock) List(ctx context.Context, query dto.ReportQuery, actor *models.JWTClaims) ([]models.ReportSummary, error) {
	m.lastQuery = query
	return m.summaries, m.err
}

func (m *reportServiceMock) ListEntries(ctx context.Context, reportID string, actor *models.JWTClaims) ([]models.ReportEntry, error) {
	m.lastReportID = reportID
	return m.entries, m.err
}

func (m *reportServiceMock) UpdateEntry(ctx context.Context, reportID, entryID string, req dto.UpdateEntryRequest, actor *models.JWTClaims) (*models.ReportEntry, error) {
	m.lastReportID = reportID
	return m.entry, m.err
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	return c, w
}

func TestReportHandlerGenerate(t *testing.T) {
	mockSvc := &reportServiceMock{report: &models.MonthlyReport{ID: "r1", Month: 3, Year: 2025, Status: models.ReportStatusDraft}}
	handler := NewReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.GenerateReportRequest{Month: 3, Year: 2025})
	c, w := testContext(t, http.MethodPost, "/reports", payload)

	handler.Generate(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, mockSvc.lastGenerate.Month)
	assert.Contains(t, w.Body.String(), `"id":"r1"`)
}

func TestReportHandlerGenerateInvalidBody(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})
	c, w := testContext(t, http.MethodPost, "/reports", []byte(`{"month":`))

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerGenerateConflict(t *testing.T) {
	mockSvc := &reportServiceMock{err: appErrors.ErrReportExists}
	handler := NewReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.GenerateReportRequest{Month: 3, Year: 2025})
	c, w := testContext(t, http.MethodPost, "/reports", payload)

	handler.Generate(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "REPORT_EXISTS")
}

func TestReportHandlerListParsesQuery(t *testing.T) {
	mockSvc := &reportServiceMock{summaries: []models.ReportSummary{}}
	handler := NewReportHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/reports?month=3&year=2025&status=draft,submitted&college=true", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, mockSvc.lastQuery.Month)
	assert.Equal(t, 2025, mockSvc.lastQuery.Year)
	assert.True(t, mockSvc.lastQuery.CollegeOnly)
	assert.Equal(t, []models.ReportStatus{models.ReportStatusDraft, models.ReportStatusSubmitted}, mockSvc.lastQuery.Status)
}

func TestReportHandlerRejectTrimsReason(t *testing.T) {
	mockSvc := &reportServiceMock{report: &models.MonthlyReport{ID: "r1", Status: models.ReportStatusRejected}}
	handler := NewReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.RejectReportRequest{Reason: "  totals do not match  "})
	c, w := testContext(t, http.MethodPost, "/reports/r1/reject", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", mockSvc.lastReportID)
	assert.Equal(t, "totals do not match", mockSvc.lastReason)
}

func TestReportHandlerRejectMissingReason(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})

	c, w := testContext(t, http.MethodPost, "/reports/r1/reject", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Reject(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerRollupPreconditionFailed(t *testing.T) {
	mockSvc := &reportServiceMock{err: appErrors.ErrNoApprovedReports}
	handler := NewReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.RollupRequest{Month: 3, Year: 2025})
	c, w := testContext(t, http.MethodPost, "/reports/rollup", payload)

	handler.Rollup(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Contains(t, w.Body.String(), "NO_APPROVED_REPORTS")
}

func TestReportHandlerDelete(t *testing.T) {
	mockSvc := &reportServiceMock{}
	handler := NewReportHandler(mockSvc)

	c, w := testContext(t, http.MethodDelete, "/reports/r1", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "r1", mockSvc.lastReportID)
}

func TestReportHandlerMissingClaims(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/reports/r1", nil)

	handler.Get(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
