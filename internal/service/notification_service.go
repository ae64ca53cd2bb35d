package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/team-service/internal/config"
	"github.com/spec-kit/team-service/internal/events"
)

// NotificationService handles emitting notifications for membership events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestSent, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventRequestApproved, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventRequestRejected, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventInviteSent, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventInviteAccepted, n.handleMembershipEvent)
	n.dispatcher.Subscribe(events.EventInviteDeclined, n.handleMembershipEvent)
}

func (n *NotificationService) handleMembershipEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("membership event",
		zap.String("type", string(event.Type)),
		zap.String("team_id", event.TeamID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload),
	)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("team_id", event.TeamID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("team_id", event.TeamID),
		zap.String("event_type", string(event.Type)))
}
