package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/henok-g/staff-report-api/internal/models"
	appErrors "github.com/henok-g/staff-report-api/pkg/errors"
	"github.com/henok-g/staff-report-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, actor *models.JWTClaims, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// NotificationHandler exposes the notification feed.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary List notifications for the current user
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, err := h.service.List(c.Request.Context(), claims, unreadOnly, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
