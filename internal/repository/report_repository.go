package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/henok-g/staff-report-api/internal/models"
)

const reportColumns = `id, report_month, report_year, department_id, status, version, created_at, created_by, submitted_at, submitted_by, rejected_at, rejection_reason`

const entryColumns = `id, report_id, staff_id, staff_code, full_name, sex, college_name, department_code, department_name, specialization, education_level, academic_rank, category, current_status, remark, created_at`

// ReportRepository persists monthly reports and their snapshot entries.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindByPeriod returns the report for a (month, year, department) key.
// A nil departmentID selects the college-scope report.
func (r *ReportRepository) FindByPeriod(ctx context.Context, month, year int, departmentID *string) (*models.MonthlyReport, error) {
	query := `SELECT ` + reportColumns + ` FROM monthly_reports WHERE report_month = $1 AND report_year = $2 AND `
	args := []interface{}{month, year}
	if departmentID == nil {
		query += "department_id IS NULL"
	} else {
		query += "department_id = $3"
		args = append(args, *departmentID)
	}
	var report models.MonthlyReport
	if err := r.db.GetContext(ctx, &report, query, args...); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByID returns a report row by identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.MonthlyReport, error) {
	const query = `SELECT ` + reportColumns + ` FROM monthly_reports WHERE id = $1`
	var report models.MonthlyReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter together with their entry counts,
// newest period first.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.ReportSummary, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT r.id, r.report_month, r.report_year, r.department_id, r.status, r.version,
       r.created_at, r.created_by, r.submitted_at, r.submitted_by, r.rejected_at, r.rejection_reason,
       COUNT(e.id) AS entry_count
FROM monthly_reports r LEFT JOIN report_entries e ON e.report_id = r.id`)

	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if filter.Month > 0 {
		args = append(args, filter.Month)
		conditions = append(conditions, fmt.Sprintf("r.report_month = $%d", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("r.report_year = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("r.department_id = $%d", len(args)))
	} else if filter.CollegeOnly {
		conditions = append(conditions, "r.department_id IS NULL")
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("r.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" GROUP BY r.id ORDER BY r.report_year DESC, r.report_month DESC, r.created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var reports []models.ReportSummary
	if err := r.db.SelectContext(ctx, &reports, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ListApprovedByPeriod returns every approved department-scope report for the
// period. College-scope rows are never included.
func (r *ReportRepository) ListApprovedByPeriod(ctx context.Context, month, year int) ([]models.MonthlyReport, error) {
	const query = `SELECT ` + reportColumns + ` FROM monthly_reports
WHERE report_month = $1 AND report_year = $2 AND department_id IS NOT NULL AND status = $3
ORDER BY created_at ASC`
	var reports []models.MonthlyReport
	if err := r.db.SelectContext(ctx, &reports, query, month, year, models.ReportStatusApproved); err != nil {
		return nil, fmt.Errorf("list approved reports: %w", err)
	}
	return reports, nil
}

// CreateWithEntries inserts the report row and its snapshot entries inside a
// single transaction so a failed bulk insert never leaves an empty report.
func (r *ReportRepository) CreateWithEntries(ctx context.Context, report *models.MonthlyReport, entries []models.ReportEntry) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusDraft
	}
	if report.Version == 0 {
		report.Version = 1
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertReport = `INSERT INTO monthly_reports
	(id, report_month, report_year, department_id, status, version, created_at, created_by, submitted_at, submitted_by, rejected_at, rejection_reason)
	VALUES (:id, :report_month, :report_year, :department_id, :status, :version, :created_at, :created_by, :submitted_at, :submitted_by, :rejected_at, :rejection_reason)`
	if _, err := tx.NamedExecContext(ctx, insertReport, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if len(entries) > 0 {
		for i := range entries {
			if entries[i].ID == "" {
				entries[i].ID = uuid.NewString()
			}
			entries[i].ReportID = report.ID
			if entries[i].CreatedAt.IsZero() {
				entries[i].CreatedAt = now
			}
		}
		const insertEntries = `INSERT INTO report_entries
		(id, report_id, staff_id, staff_code, full_name, sex, college_name, department_code, department_name, specialization, education_level, academic_rank, category, current_status, remark, created_at)
		VALUES (:id, :report_id, :staff_id, :staff_code, :full_name, :sex, :college_name, :department_code, :department_name, :specialization, :education_level, :academic_rank, :category, :current_status, :remark, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertEntries, entries); err != nil {
			return fmt.Errorf("insert report entries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report tx: %w", err)
	}
	return nil
}

// UpdateReportStatusParams describes a guarded lifecycle transition. The
// update only lands when the current status is one of AllowedFrom; zero rows
// affected surfaces as sql.ErrNoRows so callers can report a conflict.
type UpdateReportStatusParams struct {
	ID          string
	Status      models.ReportStatus
	AllowedFrom []models.ReportStatus
	SubmittedAt *time.Time
	SubmittedBy *string
	RejectedAt  *time.Time
	Reason      *string
}

// UpdateStatus applies a transition with its status guard in one statement.
func (r *ReportRepository) UpdateStatus(ctx context.Context, params UpdateReportStatusParams) error {
	set := []string{"status = $1"}
	args := []interface{}{params.Status}
	if params.SubmittedAt != nil {
		args = append(args, *params.SubmittedAt)
		set = append(set, fmt.Sprintf("submitted_at = $%d", len(args)))
	}
	if params.SubmittedBy != nil {
		args = append(args, *params.SubmittedBy)
		set = append(set, fmt.Sprintf("submitted_by = $%d", len(args)))
	}
	if params.RejectedAt != nil {
		args = append(args, *params.RejectedAt)
		set = append(set, fmt.Sprintf("rejected_at = $%d", len(args)))
	}
	if params.Reason != nil {
		args = append(args, *params.Reason)
		set = append(set, fmt.Sprintf("rejection_reason = $%d", len(args)))
	}

	args = append(args, params.ID)
	query := fmt.Sprintf("UPDATE monthly_reports SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))

	if len(params.AllowedFrom) > 0 {
		placeholders := make([]string, len(params.AllowedFrom))
		for i, status := range params.AllowedFrom {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a report; the report_entries FK cascade removes its entries.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM monthly_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListEntries returns every snapshot entry of a report.
func (r *ReportRepository) ListEntries(ctx context.Context, reportID string) ([]models.ReportEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM report_entries WHERE report_id = $1 ORDER BY full_name ASC`
	var entries []models.ReportEntry
	if err := r.db.SelectContext(ctx, &entries, query, reportID); err != nil {
		return nil, fmt.Errorf("list report entries: %w", err)
	}
	return entries, nil
}

// ListEntriesByReportIDs returns the union of entries owned by the given
// reports, in stable report order. Used by the rollup copy.
func (r *ReportRepository) ListEntriesByReportIDs(ctx context.Context, reportIDs []string) ([]models.ReportEntry, error) {
	if len(reportIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+entryColumns+` FROM report_entries WHERE report_id IN (?) ORDER BY report_id, full_name ASC`, reportIDs)
	if err != nil {
		return nil, fmt.Errorf("build entries query: %w", err)
	}
	query = r.db.Rebind(query)
	var entries []models.ReportEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list entries by reports: %w", err)
	}
	return entries, nil
}

// GetEntry returns a single snapshot entry.
func (r *ReportRepository) GetEntry(ctx context.Context, entryID string) (*models.ReportEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM report_entries WHERE id = $1`
	var entry models.ReportEntry
	if err := r.db.GetContext(ctx, &entry, query, entryID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry touches the only two post-snapshot mutable fields.
func (r *ReportRepository) UpdateEntry(ctx context.Context, entryID string, currentStatus, remark *string) error {
	set := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if currentStatus != nil {
		args = append(args, *currentStatus)
		set = append(set, fmt.Sprintf("current_status = $%d", len(args)))
	}
	if remark != nil {
		args = append(args, *remark)
		set = append(set, fmt.Sprintf("remark = $%d", len(args)))
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, entryID)
	query := fmt.Sprintf("UPDATE report_entries SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check entry update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
