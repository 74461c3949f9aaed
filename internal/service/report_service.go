package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/dto"
	"github.com/henok-g/staff-report-api/internal/models"
	"github.com/henok-g/staff-report-api/internal/repository"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
)

type reportStore interface {
	FindByPeriod(ctx context.Context, month, year int, departmentID *string) (*models.MonthlyReport, error)
	GetByID(ctx context.Context, id string) (*models.MonthlyReport, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.ReportSummary, error)
	ListApprovedByPeriod(ctx context.Context, month, year int) ([]models.MonthlyReport, error)
	CreateWithEntries(ctx context.Context, report *models.MonthlyReport, entries []models.ReportEntry) error
	UpdateStatus(ctx context.Context, params repository.UpdateReportStatusParams) error
	Delete(ctx context.Context, id string) error
	ListEntries(ctx context.Context, reportID string) ([]models.ReportEntry, error)
	ListEntriesByReportIDs(ctx context.Context, reportIDs []string) ([]models.ReportEntry, error)
	GetEntry(ctx context.Context, entryID string) (*models.ReportEntry, error)
	UpdateEntry(ctx context.Context, entryID string, currentStatus, remark *string) error
}

type rosterReader interface {
	ListByScope(ctx context.Context, departmentID *string) ([]models.Staff, error)
}

type departmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type notificationEmitter interface {
	Emit(ctx context.Context, notification models.Notification)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ReportService owns report generation, the approval workflow, and the
// college rollup.
type ReportService struct {
	repo        reportStore
	roster      rosterReader
	departments departmentReader
	notifier    notificationEmitter
	audit       auditRecorder
	cache       reportCache
	logger      *zap.Logger
	collegeName string
}

// NewReportService constructs the report service. notifier, audit and cache
// are optional.
func NewReportService(repo reportStore, roster rosterReader, departments departmentReader, notifier notificationEmitter, audit auditRecorder, cache reportCache, collegeName string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:        repo,
		roster:      roster,
		departments: departments,
		notifier:    notifier,
		audit:       audit,
		cache:       cache,
		logger:      logger,
		collegeName: collegeName,
	}
}

// Generate snapshots the active roster of the requested scope into a new
// draft report. With Regenerate set it replaces an existing report, unless
// that report has already been submitted.
func (s *ReportService) Generate(ctx context.Context, req dto.GenerateReportRequest, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if req.Year < 1000 || req.Year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be a four digit value")
	}
	if err := s.checkScopeAccess(actor, req.DepartmentID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByPeriod(ctx, req.Month, req.Year, req.DepartmentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing report")
	}
	if existing != nil {
		if !req.Regenerate {
			return nil, appErrors.ErrReportExists
		}
		if existing.Status == models.ReportStatusSubmitted {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot regenerate a submitted report")
		}
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace existing report")
		}
	}

	entries, err := s.snapshotRoster(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	report := &models.MonthlyReport{
		ID:           uuid.NewString(),
		Month:        req.Month,
		Year:         req.Year,
		DepartmentID: req.DepartmentID,
		Status:       models.ReportStatusDraft,
		Version:      1,
		CreatedBy:    actor.UserID,
	}
	for i := range entries {
		entries[i].ReportID = report.ID
	}
	if err := s.repo.CreateWithEntries(ctx, report, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.recordAudit(ctx, actor, models.AuditActionReportGenerate, report.ID, map[string]interface{}{
		"month": req.Month, "year": req.Year, "regenerate": req.Regenerate, "entries": len(entries),
	})
	s.invalidateCache(ctx)
	return report, nil
}

// Submit moves a draft or rejected report into review.
func (s *ReportService) Submit(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScopeAccess(actor, report.DepartmentID); err != nil {
		return nil, err
	}
	if !report.Status.CanTransition(models.ReportEventSubmit) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot submit a report in status %s", report.Status))
	}

	now := time.Now().UTC()
	actorID := actor.UserID
	err = s.repo.UpdateStatus(ctx, repository.UpdateReportStatusParams{
		ID:          report.ID,
		Status:      models.ReportStatusSubmitted,
		AllowedFrom: []models.ReportStatus{models.ReportStatusDraft, models.ReportStatusRejected},
		SubmittedAt: &now,
		SubmittedBy: &actorID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit report")
	}
	report.Status = models.ReportStatusSubmitted
	report.SubmittedAt = &now
	report.SubmittedBy = &actorID

	s.recordAudit(ctx, actor, models.AuditActionReportSubmit, report.ID, nil)
	s.notifyTransition(ctx, report, actor, models.NotificationTypeReportSubmitted, "")
	s.invalidateCache(ctx)
	return report, nil
}

// Approve finalizes a submitted report. Approved reports are immutable.
func (s *ReportService) Approve(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	return s.review(ctx, reportID, actor, models.ReportEventApprove, "")
}

// Reject sends a submitted report back to its owner. The reason is mandatory
// and stored on the report.
func (s *ReportService) Reject(ctx context.Context, reportID, reason string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	return s.review(ctx, reportID, actor, models.ReportEventReject, reason)
}

func (s *ReportService) review(ctx context.Context, reportID string, actor *models.JWTClaims, event models.ReportEvent, reason string) (*models.MonthlyReport, error) {
	if actor.Role != models.RoleOversight && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.Status.CanTransition(event) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot %s a report in status %s", event, report.Status))
	}

	params := repository.UpdateReportStatusParams{
		ID:          report.ID,
		Status:      event.NextStatus(),
		AllowedFrom: []models.ReportStatus{models.ReportStatusSubmitted},
	}
	action := models.AuditActionReportApprove
	notifType := models.NotificationTypeReportApproved
	if event == models.ReportEventReject {
		now := time.Now().UTC()
		params.RejectedAt = &now
		params.Reason = &reason
		action = models.AuditActionReportReject
		notifType = models.NotificationTypeReportRejected
	}
	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "report status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report status")
	}
	report.Status = params.Status
	report.RejectedAt = params.RejectedAt
	report.RejectionReason = params.Reason

	s.recordAudit(ctx, actor, action, report.ID, map[string]interface{}{"reason": reason})
	s.notifyTransition(ctx, report, actor, notifType, reason)
	s.invalidateCache(ctx)
	return report, nil
}

// Delete removes a report and its snapshot entries. Department heads may only
// delete their own drafts and rejected reports.
func (s *ReportService) Delete(ctx context.Context, reportID string, actor *models.JWTClaims) error {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return err
	}
	if actor.Role == models.RoleDepartmentHead {
		if err := s.checkScopeAccess(actor, report.DepartmentID); err != nil {
			return err
		}
		if report.Status != models.ReportStatusDraft && report.Status != models.ReportStatusRejected {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "only draft or rejected reports can be deleted")
		}
	}
	if err := s.repo.Delete(ctx, report.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	s.recordAudit(ctx, actor, models.AuditActionReportDelete, report.ID, map[string]interface{}{"status": report.Status})
	s.invalidateCache(ctx)
	return nil
}

// GenerateRollup builds the college-wide report for a period as the union of
// every approved department report's entries. Entries are copied as frozen at
// department approval time, not re-read from the roster.
func (s *ReportService) GenerateRollup(ctx context.Context, req dto.RollupRequest, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	if actor.Role != models.RoleOversight && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}

	existing, err := s.repo.FindByPeriod(ctx, req.Month, req.Year, nil)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing rollup")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrReportExists, "a college rollup already exists for this period")
	}

	approved, err := s.repo.ListApprovedByPeriod(ctx, req.Month, req.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved reports")
	}
	if len(approved) == 0 {
		return nil, appErrors.ErrNoApprovedReports
	}

	ids := make([]string, 0, len(approved))
	for _, r := range approved {
		ids = append(ids, r.ID)
	}
	sourceEntries, err := s.repo.ListEntriesByReportIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect report entries")
	}

	rollup := &models.MonthlyReport{
		ID:        uuid.NewString(),
		Month:     req.Month,
		Year:      req.Year,
		Status:    models.ReportStatusDraft,
		Version:   1,
		CreatedBy: actor.UserID,
	}
	entries := make([]models.ReportEntry, len(sourceEntries))
	for i, e := range sourceEntries {
		entry := e
		entry.ID = uuid.NewString()
		entry.ReportID = rollup.ID
		entries[i] = entry
	}
	if err := s.repo.CreateWithEntries(ctx, rollup, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rollup report")
	}

	s.recordAudit(ctx, actor, models.AuditActionReportRollup, rollup.ID, map[string]interface{}{
		"month": req.Month, "year": req.Year, "sources": len(approved), "entries": len(entries),
	})
	s.invalidateCache(ctx)
	return rollup, nil
}

// Get returns a single report, enforcing department scope for heads.
func (s *ReportService) Get(ctx context.Context, reportID string, actor *models.JWTClaims) (*models.MonthlyReport, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadAccess(actor, report); err != nil {
		return nil, err
	}
	return report, nil
}

// List returns report summaries visible to the actor. Department heads only
// see their own department plus college rollups.
func (s *ReportService) List(ctx context.Context, query dto.ReportQuery, actor *models.JWTClaims) ([]models.ReportSummary, error) {
	filter := models.ReportFilter{
		Month:        query.Month,
		Year:         query.Year,
		DepartmentID: query.DepartmentID,
		CollegeOnly:  query.CollegeOnly,
		Status:       query.Status,
	}
	if actor.Role == models.RoleDepartmentHead && !query.CollegeOnly {
		if actor.DepartmentID == nil {
			return nil, appErrors.ErrForbidden
		}
		filter.DepartmentID = *actor.DepartmentID
	}

	cacheKey := reportListCacheKey(filter)
	if s.cache != nil {
		var cached []models.ReportSummary
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return cached, nil
		}
	}

	summaries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summaries, 0); err != nil {
			s.logger.Warn("failed to cache report list", zap.Error(err))
		}
	}
	return summaries, nil
}

// ListEntries returns the snapshot rows of one report.
func (s *ReportService) ListEntries(ctx context.Context, reportID string, actor *models.JWTClaims) ([]models.ReportEntry, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadAccess(actor, report); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report entries")
	}
	return entries, nil
}

// UpdateEntry edits the only mutable snapshot fields, current status and
// remark. Approved reports are frozen.
func (s *ReportService) UpdateEntry(ctx context.Context, reportID, entryID string, req dto.UpdateEntryRequest, actor *models.JWTClaims) (*models.ReportEntry, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScopeAccess(actor, report.DepartmentID); err != nil {
		return nil, err
	}
	if report.Status == models.ReportStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "approved reports cannot be edited")
	}
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report entry")
	}
	if entry.ReportID != report.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report entry not found")
	}
	if req.CurrentStatus == nil && req.Remark == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if err := s.repo.UpdateEntry(ctx, entryID, req.CurrentStatus, req.Remark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report entry")
	}
	if req.CurrentStatus != nil {
		entry.CurrentStatus = *req.CurrentStatus
	}
	if req.Remark != nil {
		entry.Remark = req.Remark
	}
	s.invalidateCache(ctx)
	return entry, nil
}

func (s *ReportService) snapshotRoster(ctx context.Context, departmentID *string) ([]models.ReportEntry, error) {
	staff, err := s.roster.ListByScope(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	// Resolve department identity once per distinct ID. The snapshot stores
	// denormalized department fields so later renames never leak into it.
	deptInfo := make(map[string]*models.Department)
	entries := make([]models.ReportEntry, 0, len(staff))
	for _, member := range staff {
		dept, ok := deptInfo[member.DepartmentID]
		if !ok {
			dept, err = s.departments.FindByID(ctx, member.DepartmentID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					dept = &models.Department{ID: member.DepartmentID}
				} else {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve department")
				}
			}
			deptInfo[member.DepartmentID] = dept
		}
		collegeName := member.CollegeName
		if collegeName == "" {
			collegeName = s.collegeName
		}
		entries = append(entries, models.ReportEntry{
			ID:             uuid.NewString(),
			StaffID:        member.ID,
			StaffCode:      member.StaffCode,
			FullName:       member.FullName,
			Sex:            member.Sex,
			CollegeName:    collegeName,
			DepartmentCode: dept.Code,
			DepartmentName: dept.Name,
			Specialization: member.Specialization,
			EducationLevel: member.EducationLevel,
			AcademicRank:   member.AcademicRank,
			Category:       member.Category,
			CurrentStatus:  member.CurrentStatus,
			Remark:         member.Remark,
		})
	}
	return entries, nil
}

func (s *ReportService) loadReport(ctx context.Context, id string) (*models.MonthlyReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// checkScopeAccess gates write operations: department heads act only on their
// own department, never on the college scope.
func (s *ReportService) checkScopeAccess(actor *models.JWTClaims, departmentID *string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleOversight:
		return nil
	case models.RoleDepartmentHead:
		if departmentID == nil || actor.DepartmentID == nil || *actor.DepartmentID != *departmentID {
			return appErrors.ErrForbidden
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// checkReadAccess is looser than checkScopeAccess: heads may read college
// rollups in addition to their own department's reports.
func (s *ReportService) checkReadAccess(actor *models.JWTClaims, report *models.MonthlyReport) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleDepartmentHead || report.IsCollegeScope() {
		return nil
	}
	if actor.DepartmentID == nil || *actor.DepartmentID != *report.DepartmentID {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *ReportService) notifyTransition(ctx context.Context, report *models.MonthlyReport, actor *models.JWTClaims, notifType models.NotificationType, reason string) {
	if s.notifier == nil {
		return
	}
	period := fmt.Sprintf("%s %d", time.Month(report.Month), report.Year)
	notification := models.Notification{
		Type:         notifType,
		DepartmentID: report.DepartmentID,
		PerformedBy:  actor.UserID,
	}
	switch notifType {
	case models.NotificationTypeReportSubmitted:
		notification.TargetRole = models.RoleOversight
		notification.Title = "Report submitted"
		notification.Message = fmt.Sprintf("The staff report for %s was submitted for review.", period)
	case models.NotificationTypeReportApproved:
		notification.TargetRole = models.RoleDepartmentHead
		notification.Title = "Report approved"
		notification.Message = fmt.Sprintf("The staff report for %s was approved.", period)
	case models.NotificationTypeReportRejected:
		notification.TargetRole = models.RoleDepartmentHead
		notification.Title = "Report rejected"
		notification.Message = fmt.Sprintf("The staff report for %s was rejected: %s", period, reason)
	}
	s.notifier.Emit(ctx, notification)
}

func (s *ReportService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, reportID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if details != nil {
		payload, _ = json.Marshal(details)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "report",
		ResourceID: &reportID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record report audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *ReportService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "reports:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

func reportListCacheKey(filter models.ReportFilter) string {
	statuses := ""
	for _, st := range filter.Status {
		statuses += ":" + string(st)
	}
	return fmt.Sprintf("reports:list:%d:%d:%s:%t%s", filter.Month, filter.Year, filter.DepartmentID, filter.CollegeOnly, statuses)
}
