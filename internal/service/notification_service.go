package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/events"
)

// NotificationService fans domain events out to the log and, when
// configured, to the message broker.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	forward    events.EventHandler
}

// NewNotificationService creates the service. forward may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, forward events.EventHandler) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		forward:    forward,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventTicketReviewed, n.handleTicketReviewed)
	n.dispatcher.Subscribe(events.EventOrganizationCreated, n.handleOrganizationCreated)
	n.dispatcher.Subscribe(events.EventUserRoleChanged, n.handleUserRoleChanged)
}

func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("ticket_id", event.TicketID)}
	if p, ok := event.Payload.(events.TicketSubmittedPayload); ok {
		fields = append(fields,
			zap.String("ticket_code", p.TicketCode),
			zap.String("ticket_type", string(p.TicketType)))
	}
	n.logger.Info("TicketSubmitted", fields...)
	return n.forwardEvent(ctx, event)
}

func (n *NotificationService) handleTicketReviewed(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("ticket_id", event.TicketID), zap.String("reviewer_id", event.ActorID)}
	if p, ok := event.Payload.(events.TicketReviewedPayload); ok {
		fields = append(fields,
			zap.String("ticket_code", p.TicketCode),
			zap.String("status", string(p.Status)),
			zap.String("resolution", p.Resolution))
	}
	n.logger.Info("TicketReviewed", fields...)
	return n.forwardEvent(ctx, event)
}

func (n *NotificationService) handleOrganizationCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("OrganizationCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.forwardEvent(ctx, event)
}

func (n *NotificationService) handleUserRoleChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRoleChanged", zap.String("actor_id", event.ActorID), zap.Any("payload", event.Payload))
	return n.forwardEvent(ctx, event)
}

func (n *NotificationService) forwardEvent(ctx context.Context, event events.Event) error {
	if n.forward == nil {
		return nil
	}
	if err := n.forward(ctx, event); err != nil {
		n.logger.Warn("forward event failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
