package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParticipantID_OrderIndependent(t *testing.T) {
	assert.Equal(t, ParticipantID("b-user", "a-user"), ParticipantID("a-user", "b-user"))
	assert.Equal(t, "a-user_b-user", ParticipantID("b-user", "a-user"))
	assert.Equal(t, []string{"a", "b"}, SortedParticipants("b", "a"))
}

func TestConversation_Helpers(t *testing.T) {
	now := time.Now()
	c := Conversation{Participants: []string{"u1", "u2"}}

	assert.True(t, c.HasParticipant("u1"))
	assert.False(t, c.HasParticipant("u3"))
	assert.Equal(t, "u2", c.Peer("u1"))
	assert.Nil(t, c.LastChat())

	c.Chats = append(c.Chats, NewChat("u1", "hi", now), NewChat("u2", "hey", now))
	assert.Equal(t, "hey", c.LastChat().Content)
	assert.False(t, c.LastChat().Viewed)
}

func TestIncomingChat_Body(t *testing.T) {
	ok := IncomingChat{
		ConversationID: "c1",
		To:             "u2",
		Message:        json.RawMessage(`{"id":"m1","time":"2026-01-01T00:00:00Z","text":"hello","user":{"id":"u1","name":"Ann"}}`),
	}
	msg, err := ok.Body()
	assert.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)

	for name, in := range map[string]IncomingChat{
		"no conversation": {To: "u2", Message: ok.Message},
		"no recipient":    {ConversationID: "c1", Message: ok.Message},
		"no message":      {ConversationID: "c1", To: "u2"},
		"blank text":      {ConversationID: "c1", To: "u2", Message: json.RawMessage(`{"text":"  "}`)},
		"not an object":   {ConversationID: "c1", To: "u2", Message: json.RawMessage(`"hello"`)},
	} {
		_, err := in.Body()
		assert.ErrorIs(t, err, ErrInvalidChatEvent, name)
	}
}
