package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// websocket event names
const (
	EventChatNew     = "chat:new"
	EventChatMessage = "chat:message"
	EventError       = "error"
)

// ErrInvalidChatEvent malformed chat:new payload
var ErrInvalidChatEvent = errors.New("invalid chat event")

// Identity authenticated caller of a connection
type Identity struct {
	MemberID string
}

// InboundEnvelope frame received from a client
type InboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutboundEnvelope frame pushed to a client
type OutboundEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ChatUser author info carried by clients
type ChatUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ChatMessage client message body
type ChatMessage struct {
	ID   string   `json:"id"`
	Time string   `json:"time"`
	Text string   `json:"text"`
	User ChatUser `json:"user"`
}

// IncomingChat chat:new payload; Message is kept raw so it is forwarded byte for byte
type IncomingChat struct {
	ConversationID string          `json:"conversationId"`
	To             string          `json:"to"`
	Message        json.RawMessage `json:"message"`
}

// OutgoingChat chat:message payload
type OutgoingChat struct {
	From           string          `json:"from"`
	ConversationID string          `json:"conversationId"`
	Message        json.RawMessage `json:"message"`
}

// ErrorPayload error event payload, sent to the originating connection only
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Body decodes and checks the message
func (in IncomingChat) Body() (ChatMessage, error) {
	var msg ChatMessage
	if strings.TrimSpace(in.ConversationID) == "" || strings.TrimSpace(in.To) == "" || len(in.Message) == 0 {
		return msg, ErrInvalidChatEvent
	}
	if err := json.Unmarshal(in.Message, &msg); err != nil {
		return msg, ErrInvalidChatEvent
	}
	if strings.TrimSpace(msg.Text) == "" {
		return msg, ErrInvalidChatEvent
	}
	return msg, nil
}
