package controller

import (
	"log/slog"
	"net/http"

	"service-marketplace-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

type notificationRoutesHandler struct {
	notificationService service.Notification
	validate            *validator.Validate
	logger              *slog.Logger
}

func newNotificationRoutesHandler(outer *echo.Group, opts Options, v *validator.Validate) *notificationRoutesHandler {
	h := &notificationRoutesHandler{notificationService: opts.Services.Notification, validate: v, logger: opts.Logger}

	outer.GET("/notifications", h.GetNotifications)
	outer.PUT("/notifications/read_all", h.MarkAllRead)
	outer.PUT("/notifications/:notificationId/read", h.MarkRead)
	outer.POST("/notifications/message", h.PostMessage)

	return h
}

type getNotificationsInput struct {
	Limit      int32 `query:"limit" validate:"gte=0,lte=100"`
	Offset     int32 `query:"offset" validate:"gte=0"`
	UnreadOnly bool  `query:"unread"`
}

// /notifications
func (h *notificationRoutesHandler) GetNotifications(c echo.Context) error {
	var input = getNotificationsInput{Limit: defaultLimit, Offset: defaultOffset}
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	pg := paginationInput{Limit: input.Limit, Offset: input.Offset}
	notifications, err := h.notificationService.ListNotifications(c.Request().Context(), input.UnreadOnly, pg.toEntity())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, notifications)
}

// /notifications/:notificationId/read
func (h *notificationRoutesHandler) MarkRead(c echo.Context) error {
	notification, err := h.notificationService.MarkNotificationRead(c.Request().Context(), c.Param("notificationId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, notification)
}

type markAllReadOutput struct {
	Updated int `json:"updated"`
}

// /notifications/read_all
func (h *notificationRoutesHandler) MarkAllRead(c echo.Context) error {
	updated, err := h.notificationService.MarkAllNotificationsRead(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, markAllReadOutput{updated})
}

type messageInput struct {
	RecipientId    string `json:"recipientId" validate:"required,uuid"`
	SenderName     string `json:"senderName" validate:"required,max=100"`
	ConversationId string `json:"conversationId" validate:"required,max=100"`
	Message        string `json:"message" validate:"required,max=1000"`
}

// /notifications/message notifies another user of a chat message. The
// conversation itself lives outside this service.
func (h *notificationRoutesHandler) PostMessage(c echo.Context) error {
	var input messageInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	notification, err := h.notificationService.SendNotification(c.Request().Context(), input.RecipientId, service.KindNewMessage, map[string]string{
		"senderName": input.SenderName,
		"message":    input.Message,
		"convId":     input.ConversationId,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, notification)
}
