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

const staffColumns = `id, staff_code, full_name, sex, specialization, education_level, academic_rank, category, current_status, remark, department_id, college_name, active, created_at, updated_at`

// StaffRepository manages persistence for the staff roster.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// List returns staff matching filters along with total count.
func (r *StaffRepository) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error) {
	base := "FROM staff WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("current_status = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, search)
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(COALESCE(staff_code, '')) LIKE $%d OR LOWER(specialization) LIKE $%d)", len(args), len(args), len(args)))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":     "full_name",
		"staff_code":    "staff_code",
		"academic_rank": "academic_rank",
		"created_at":    "created_at",
		"updated_at":    "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", staffColumns, base, column, order, size, offset)
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}

	return staff, total, nil
}

// ListByScope returns active staff for the snapshot, scoped to a department
// when departmentID is non-nil, otherwise college-wide.
func (r *StaffRepository) ListByScope(ctx context.Context, departmentID *string) ([]models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE active = TRUE`
	args := []interface{}{}
	if departmentID != nil {
		query += " AND department_id = $1"
		args = append(args, *departmentID)
	}
	query += " ORDER BY full_name ASC"
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, fmt.Errorf("list staff by scope: %w", err)
	}
	return staff, nil
}

// FindByID fetches a staff member by ID.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}

// ExistsByCode checks if another staff member uses the same staff code.
func (r *StaffRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	if strings.TrimSpace(code) == "" {
		return false, nil
	}
	query := "SELECT 1 FROM staff WHERE staff_code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check staff code: %w", err)
	}
	return true, nil
}

// Create inserts a new staff record.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now

	const query = `INSERT INTO staff
	(id, staff_code, full_name, sex, specialization, education_level, academic_rank, category, current_status, remark, department_id, college_name, active, created_at, updated_at)
	VALUES (:id, :staff_code, :full_name, :sex, :specialization, :education_level, :academic_rank, :category, :current_status, :remark, :department_id, :college_name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// CreateMany bulk-inserts roster records inside one transaction. Used by the
// CSV import so a bad batch never lands half-way.
func (r *StaffRepository) CreateMany(ctx context.Context, staff []models.Staff) error {
	if len(staff) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range staff {
		if staff[i].ID == "" {
			staff[i].ID = uuid.NewString()
		}
		if staff[i].CreatedAt.IsZero() {
			staff[i].CreatedAt = now
		}
		staff[i].UpdatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staff import tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO staff
	(id, staff_code, full_name, sex, specialization, education_level, academic_rank, category, current_status, remark, department_id, college_name, active, created_at, updated_at)
	VALUES (:id, :staff_code, :full_name, :sex, :specialization, :education_level, :academic_rank, :category, :current_status, :remark, :department_id, :college_name, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("bulk insert staff: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staff import tx: %w", err)
	}
	return nil
}

// Update persists the full mutable field set of a staff record.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff SET
	staff_code = :staff_code, full_name = :full_name, sex = :sex, specialization = :specialization,
	education_level = :education_level, academic_rank = :academic_rank, category = :category,
	current_status = :current_status, remark = :remark, department_id = :department_id,
	college_name = :college_name, active = :active, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, staff)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check staff update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate marks a staff member inactive without touching past snapshots.
func (r *StaffRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE staff SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate staff: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check staff deactivate rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
