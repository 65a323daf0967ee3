package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"smart_cycle_market/internal/chat/domain"
	"smart_cycle_market/pkg/logger"
	"smart_cycle_market/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultWriteWait    = 10 * time.Second
	// bounds how long a stalled recipient holds its registry set during Deliver
	defaultSendWait     = 3 * time.Second
	eventTimeout        = 10 * time.Second
)

// ChatEventHandler handles one decoded chat:new event
type ChatEventHandler interface {
	HandleChatEvent(ctx context.Context, sender domain.Identity, in domain.IncomingChat) error
}

// ChannelBinder tracks live channels
type ChannelBinder interface {
	Register(memberID string, ch Channel)
	Unregister(ch Channel)
}

// wsChannel serialises writes on one websocket, every write carries a deadline
type wsChannel struct {
	id        string
	conn      *websocket.Conn
	writeWait time.Duration
	sendWait  time.Duration
	mu        sync.Mutex
}

func newWSChannel(conn *websocket.Conn, writeWait, sendWait time.Duration) *wsChannel {
	return &wsChannel{id: uuid.NewString(), conn: conn, writeWait: writeWait, sendWait: sendWait}
}

func (c *wsChannel) ID() string { return c.id }

func (c *wsChannel) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.sendWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *wsChannel) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.writeWait))
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}

// ChatWebsocketHandler websocket entry point, one per process
type ChatWebsocketHandler struct {
	gateway      ChatEventHandler
	channels     ChannelBinder
	pingInterval time.Duration
	writeWait    time.Duration
	sendWait     time.Duration
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(gateway ChatEventHandler, channels ChannelBinder) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		gateway:      gateway,
		channels:     channels,
		pingInterval: defaultPingInterval,
		writeWait:    defaultWriteWait,
		sendWait:     defaultSendWait,
	}
}

// HandleConnection runs the read loop of an authenticated websocket until it closes
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	if memberID == "" {
		logger.Log.Warn("websocket without identity", zap.String("remote", conn.RemoteAddr().String()))
		_ = conn.Close()
		return
	}
	identity := domain.Identity{MemberID: memberID}

	ch := newWSChannel(conn, h.writeWait, h.sendWait)
	log := logger.Log.With(zap.String("memberID", memberID), zap.String("channel", ch.ID()))
	h.channels.Register(memberID, ch)
	log.Info("websocket open")

	ctxConn, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(h.pingInterval)

	defer func() {
		h.channels.Unregister(ch)
		ticker.Stop()
		cancel()
		_ = conn.Close()
		log.Info("websocket close")
	}()

	pongWait := 2 * h.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	//fiber answers close frames itself, only log them
	conn.SetCloseHandler(func(code int, text string) error {
		log.Debug("websocket close frame", zap.Int("code", code))
		return nil
	})

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := ch.ping(); err != nil {
					log.Debug("ping failed", zap.Error(err))
					return
				}
			case <-ctxConn.Done():
				return
			}
		}
	}()

	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				log.Debug("connection closed", zap.Error(err))
			} else {
				log.Info("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if mt != websocket.TextMessage {
			h.sendError(ch, "", "Unsupported message type!")
			continue
		}
		h.execEvent(ctxConn, ch, identity, raw)
	}
}

func (h *ChatWebsocketHandler) execEvent(ctx context.Context, ch Channel, identity domain.Identity, raw []byte) {
	var env domain.InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(ch, "", "Invalid message format!")
		return
	}

	switch env.Event {
	case domain.EventChatNew:
		var in domain.IncomingChat
		if err := json.Unmarshal(env.Data, &in); err != nil {
			h.sendError(ch, env.Event, "Invalid chat payload!")
			return
		}

		ctxEvent, cancel := context.WithTimeout(ctx, eventTimeout)
		defer cancel()

		if err := h.gateway.HandleChatEvent(ctxEvent, identity, in); err != nil {
			h.sendError(ch, env.Event, chatErrorMessage(identity, in, err))
		}

	default:
		h.sendError(ch, env.Event, "Unknown event!")
	}
}

func (h *ChatWebsocketHandler) sendError(ch Channel, event, message string) {
	err := ch.Send(domain.OutboundEnvelope{
		Event: domain.EventError,
		Data:  domain.ErrorPayload{Event: event, Message: message},
	})
	if err != nil {
		logger.Log.Debug("send error event", zap.String("channel", ch.ID()), zap.Error(err))
	}
}

func chatErrorMessage(identity domain.Identity, in domain.IncomingChat, err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidChatEvent):
		return "Invalid chat payload!"
	case errors.Is(err, domain.ErrConversationNotFound):
		return "Conversation not found!"
	default:
		logger.Log.Error("chat not persisted",
			zap.String("memberID", identity.MemberID),
			zap.String("conversationId", in.ConversationID),
			zap.Error(err),
		)
		return "Failed to send message!"
	}
}
