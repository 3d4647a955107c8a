package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/response"
)

type inboxAPI interface {
	Inbox(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
}

// NotificationHandler exposes the in-app notification inbox.
type NotificationHandler struct {
	inbox inboxAPI
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(inbox inboxAPI) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// Inbox godoc
// @Summary Latest notifications for the caller
// @Description Admins may read another inbox, such as the shared admin recipient, via the recipient query.
// @Tags Notifications
// @Produce json
// @Param recipient query string false "Recipient (admin only)"
// @Param limit query int false "Max items (default 50)"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) Inbox(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	recipient := claims.UserID
	if requested := c.Query("recipient"); requested != "" && requested != claims.UserID {
		if !claims.IsAdmin() {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		recipient = requested
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.inbox.Inbox(c.Request.Context(), recipient, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"recipient": recipient})
}
