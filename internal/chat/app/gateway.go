package app

import (
	"context"
	"fmt"
	"time"

	"smart_cycle_market/internal/chat/domain"
	"smart_cycle_market/internal/chat/repository"
	"smart_cycle_market/pkg/events"
	"smart_cycle_market/pkg/logger"

	"go.uber.org/zap"
)

// Deliverer pushes a payload to the live channels of a member
type Deliverer interface {
	Deliver(memberID string, payload interface{}) int
}

// MessageGateway persists inbound chats, then forwards them to the recipient
type MessageGateway struct {
	convRepo  repository.ConversationRepository
	registry  Deliverer
	publisher events.Publisher
	now       func() time.Time
}

// NewMessageGateway create MessageGateway
func NewMessageGateway(convRepo repository.ConversationRepository, registry Deliverer, publisher events.Publisher) *MessageGateway {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &MessageGateway{
		convRepo:  convRepo,
		registry:  registry,
		publisher: publisher,
		now:       time.Now,
	}
}

// HandleChatEvent write first, deliver after. Nothing is delivered when the write fails.
func (g *MessageGateway) HandleChatEvent(ctx context.Context, sender domain.Identity, in domain.IncomingChat) error {
	msg, err := in.Body()
	if err != nil {
		return err
	}
	if in.To == sender.MemberID {
		return fmt.Errorf("%w: recipient is the sender", domain.ErrInvalidChatEvent)
	}

	chat := domain.NewChat(sender.MemberID, msg.Text, g.now())
	if err := g.convRepo.AppendChat(ctx, in.ConversationID, in.To, chat); err != nil {
		return err
	}

	delivered := g.registry.Deliver(in.To, domain.OutboundEnvelope{
		Event: domain.EventChatMessage,
		Data: domain.OutgoingChat{
			From:           sender.MemberID,
			ConversationID: in.ConversationID,
			Message:        in.Message,
		},
	})

	logger.Log.Debug("chat handled",
		zap.String("conversationId", in.ConversationID),
		zap.String("from", sender.MemberID),
		zap.String("to", in.To),
		zap.Int("delivered", delivered),
	)

	g.publish(ctx, in.ConversationID, sender.MemberID, in.To, chat)
	return nil
}

func (g *MessageGateway) publish(ctx context.Context, conversationID, from, to string, chat domain.Chat) {
	err := g.publisher.Publish(ctx, events.Event{
		Type: events.ChatAppended,
		Key:  conversationID,
		At:   chat.Timestamp,
		Data: map[string]interface{}{
			"conversationId": conversationID,
			"chatId":         chat.ID.Hex(),
			"from":           from,
			"to":             to,
		},
	})
	if err != nil {
		logger.Log.Warn("publish chat event", zap.String("conversationId", conversationID), zap.Error(err))
	}
}
