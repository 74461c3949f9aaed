package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// Notifier delivers a notification out of band (log sink, mail, webhook).
type Notifier interface {
	Deliver(ctx context.Context, notification models.Notification) error
}

// LogNotifier writes deliveries to the application log. It is the default
// sink when no external channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a log based notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Deliver logs the notification payload.
func (n *LogNotifier) Deliver(_ context.Context, notification models.Notification) error {
	n.logger.Info("notification delivered",
		zap.String("type", string(notification.Type)),
		zap.String("target_role", string(notification.TargetRole)),
		zap.String("title", notification.Title),
	)
	return nil
}

// NotificationService persists workflow notifications and dispatches them
// asynchronously. Dispatch is fire and forget: a delivery failure is logged
// and never surfaces to the caller that triggered the notification.
type NotificationService struct {
	repo     notificationStore
	notifier Notifier
	queue    jobDispatcher
	logger   *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationStore, notifier Notifier, queue jobDispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &NotificationService{repo: repo, notifier: notifier, queue: queue, logger: logger}
}

// Emit stores the notification and enqueues its delivery. Errors on either
// step are swallowed after logging; the triggering operation already
// succeeded and must not be rolled back by a notification problem.
func (s *NotificationService) Emit(ctx context.Context, notification models.Notification) {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		s.logger.Warn("failed to persist notification",
			zap.String("type", string(notification.Type)), zap.Error(err))
		return
	}
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: notification.ID, Type: string(notification.Type), Payload: notification}); err != nil {
		s.logger.Warn("failed to enqueue notification delivery",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}
}

// HandleDelivery is the queue handler bridging jobs to the configured sink.
func (s *NotificationService) HandleDelivery(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Warn("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.notifier.Deliver(ctx, notification)
}

// List returns notifications visible to the actor: their role's feed, scoped
// to their department for heads.
func (s *NotificationService) List(ctx context.Context, actor *models.JWTClaims, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.NotificationFilter{
		TargetRole: actor.Role,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	}
	if actor.Role == models.RoleDepartmentHead && actor.DepartmentID != nil {
		filter.DepartmentID = *actor.DepartmentID
	}
	notifications, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}
