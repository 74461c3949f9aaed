package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/henok-g/staff-report-api/internal/models"
)

const departmentColumns = `id, code, name, college_name, active, created_at, updated_at`

// DepartmentRepository manages persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs a DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all departments, active first.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments ORDER BY active DESC, name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID fetches a department by ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ExistsByCode checks if another department uses the same code.
func (r *DepartmentRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM departments WHERE LOWER(code) = LOWER($1)"
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
		return false, fmt.Errorf("check department code: %w", err)
	}
	return true, nil
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if department.CreatedAt.IsZero() {
		department.CreatedAt = now
	}
	department.UpdatedAt = now

	const query = `INSERT INTO departments (id, code, name, college_name, active, created_at, updated_at)
	VALUES (:id, :code, :name, :college_name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update persists department changes.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET code = :code, name = :name, college_name = :college_name, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, department)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check department update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
