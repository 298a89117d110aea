package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kheyma/kheyma-service/internal/config"
	"github.com/kheyma/kheyma-service/internal/events"
)

// NotificationService turns account events into outbound notifications.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
}

// Events lists the event types Handle reacts to.
func (n *NotificationService) Events() []events.EventType {
	return []events.EventType{
		events.EventUserRegistered,
		events.EventUserStatusChanged,
		events.EventLoginFailed,
	}
}

// Handle delivers the notification for one event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventUserRegistered:
		n.logger.Info("UserRegistered", zap.String("subject", event.Subject))
		n.sendEmailNotificationStub(ctx, event, "welcome")
	case events.EventUserStatusChanged:
		n.logger.Info("UserStatusChanged", zap.String("subject", event.Subject), zap.Any("payload", event.Payload))
		n.sendEmailNotificationStub(ctx, event, "account_status")
	case events.EventLoginFailed:
		n.logger.Debug("LoginFailed", zap.String("subject", event.Subject), zap.Any("payload", event.Payload))
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, template string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", event.Subject),
		zap.String("template", template),
		zap.String("event_type", string(event.Type)))
}
