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

const notificationColumns = `id, type, title, message, department_id, target_role, performed_by, read, created_at`

// NotificationRepository persists outbound workflow notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, type, title, message, department_id, target_role, performed_by, read, created_at)
	VALUES (:id, :type, :title, :message, :department_id, :target_role, :performed_by, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// List returns notifications matching the filter, newest first.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + notificationColumns + ` FROM notifications`)

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.TargetRole != "" {
		args = append(args, filter.TargetRole)
		conditions = append(conditions, fmt.Sprintf("target_role = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("(department_id = $%d OR department_id IS NULL)", len(args)))
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "read = FALSE")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check notification update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
