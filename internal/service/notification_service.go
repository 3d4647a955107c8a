package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/jobs"
)

const notificationJobType = "notification"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// NotificationService persists workflow notifications off the request path.
type NotificationService struct {
	repo   notificationStore
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewNotificationService constructs the sink. Without a queue, notifications are written inline.
func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// AttachQueue routes Notify through the background queue.
func (s *NotificationService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Notify records a notification for the recipient. Delivery failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, recipient, kind string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("notification payload rejected", zap.String("type", kind), zap.Error(err))
		return
	}
	n := models.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Type:      kind,
		Payload:   raw,
		Channel:   models.ChannelInApp,
	}
	if s.queue == nil {
		if err := s.repo.Create(ctx, &n); err != nil {
			s.logger.Warn("notification write failed", zap.String("type", kind), zap.Error(err))
		}
		return
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: n.ID, Type: notificationJobType, Payload: n}); err != nil {
		s.logger.Warn("notification dropped", zap.String("type", kind), zap.String("recipient", recipient), zap.Error(err))
	}
}

// Handle is the queue handler that persists one notification.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return errors.New("unexpected notification payload")
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	if n.Channel == models.ChannelEmail {
		s.logger.Info("email notification", zap.String("recipient", n.Recipient), zap.String("type", n.Type))
	}
	return nil
}

// Inbox returns the latest notifications addressed to recipient.
func (s *NotificationService) Inbox(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	items, err := s.repo.ListByRecipient(ctx, recipient, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
	}
	return nonNil(items), nil
}
