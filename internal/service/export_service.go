package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	"github.com/henok-g/staff-report-api/internal/repository"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/export"
	"github.com/henok-g/staff-report-api/pkg/jobs"
	"github.com/henok-g/staff-report-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type reportReader interface {
	GetByID(ctx context.Context, id string) (*models.MonthlyReport, error)
	ListEntries(ctx context.Context, reportID string) ([]models.ReportEntry, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type documentGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

// ExportConfig tunes the export pipeline.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService runs the document export pipeline: queueing jobs, rendering
// report snapshots to CSV, XLSX or PDF, and resolving signed download URLs.
type ExportService struct {
	jobs    exportJobStore
	reports reportReader
	queue   jobDispatcher
	storage fileStorage
	signer  *storage.SignedURLSigner
	csv     csvRenderer
	xlsx    titledRenderer
	pdf     titledRenderer
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(jobStore exportJobStore, reports reportReader, queue jobDispatcher, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ExportService{
		jobs:    jobStore,
		reports: reports,
		queue:   queue,
		storage: store,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		xlsx:    export.NewXLSXExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
		cfg:     cfg,
	}
}

// CreateJob validates the request, persists the job, and enqueues rendering.
func (s *ExportService) CreateJob(ctx context.Context, reportID string, req dto.ExportRequest, actor *models.JWTClaims) (*dto.ExportJobResponse, error) {
	if !isValidExportFormat(req.Format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if actor.Role == models.RoleDepartmentHead && !report.IsCollegeScope() {
		if actor.DepartmentID == nil || *actor.DepartmentID != *report.DepartmentID {
			return nil, appErrors.ErrForbidden
		}
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		ReportID:  report.ID,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
		Progress:  0,
		CreatedBy: actor.UserID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata, enforcing ownership for non-admins.
func (s *ExportService) GetStatus(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ExportStatusResponse, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if actor.Role != models.RoleAdmin && job.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ExportStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Generate renders the report snapshot for a job and stores the result.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	report, err := s.reports.GetByID(ctx, job.ReportID)
	if err != nil {
		return nil, err
	}
	entries, err := s.reports.ListEntries(ctx, report.ID)
	if err != nil {
		return nil, err
	}

	dataset, title := buildReportDataset(report, entries)

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(dataset, title)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(report, job.Format), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs, e.g. after process restart.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.jobs.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending export", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for {
		finished, err := s.jobs.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Sugar().Warnw("export cleanup list failed", "error", err)
			return
		}
		if len(finished) == 0 {
			break
		}
		for _, job := range finished {
			if job.ResultURL == nil {
				continue
			}
			token := extractToken(*job.ResultURL)
			if token == "" {
				continue
			}
			_, relPath, _, err := s.signer.Parse(token, true)
			if err != nil {
				continue
			}
			if err := s.storage.Delete(relPath); err != nil {
				s.logger.Sugar().Warnw("export cleanup delete failed", "job_id", job.ID, "error", err)
			}
		}
		if len(finished) < 100 {
			break
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

func (s *ExportService) buildFilename(report *models.MonthlyReport, format models.ExportFormat) string {
	scope := "college"
	if report.DepartmentID != nil {
		scope = sanitizeFilename(*report.DepartmentID)
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("staff_report_%04d%02d_%s_%s.%s", report.Year, report.Month, scope, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func buildReportDataset(report *models.MonthlyReport, entries []models.ReportEntry) (export.Dataset, string) {
	headers := []string{"Staff Code", "Full Name", "Sex", "College", "Department Code", "Department", "Specialization", "Education Level", "Academic Rank", "Category", "Status", "Remark"}
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Staff Code":      derefString(e.StaffCode),
			"Full Name":       e.FullName,
			"Sex":             e.Sex,
			"College":         e.CollegeName,
			"Department Code": e.DepartmentCode,
			"Department":      e.DepartmentName,
			"Specialization":  e.Specialization,
			"Education Level": e.EducationLevel,
			"Academic Rank":   e.AcademicRank,
			"Category":        string(e.Category),
			"Status":          e.CurrentStatus,
			"Remark":          derefString(e.Remark),
		})
	}
	scope := "College"
	if !report.IsCollegeScope() && len(entries) > 0 {
		scope = entries[0].DepartmentName
	}
	title := fmt.Sprintf("Staff Monthly Report %s %d - %s", time.Month(report.Month), report.Year, scope)
	return export.Dataset{Headers: headers, Rows: rows}, title
}

func isValidExportFormat(f models.ExportFormat) bool {
	switch f {
	case models.ExportFormatCSV, models.ExportFormatXLSX, models.ExportFormatPDF:
		return true
	default:
		return false
	}
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ExportWorker bridges queue jobs to the export pipeline.
type ExportWorker struct {
	jobs       exportJobStore
	generator  documentGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewExportWorker constructs a worker.
func NewExportWorker(jobStore exportJobStore, generator documentGenerator, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ExportWorker{jobs: jobStore, generator: generator, logger: logger, maxRetries: maxRetries}
}

// Handle processes one queue job.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.generator.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ExportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark export failed", "job_id", job.ID, "error", updateErr)
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := w.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark export queued", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}
	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
