package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrConversationNotFound unknown id, or sender/recipient are not its participants
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrSelfConversation both participants are the same member
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	// ErrNotParticipant caller is not part of the conversation
	ErrNotParticipant = errors.New("not a participant of this conversation")
)

// Conversation pairwise conversation with its embedded chat history
type Conversation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Participants  []string           `bson:"participants" json:"participants"`
	ParticipantID string             `bson:"participant_id" json:"participantId"`
	Chats         []Chat             `bson:"chats" json:"chats"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Chat one message, append only
type Chat struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	SentBy    string             `bson:"sent_by" json:"sentBy"`
	Content   string             `bson:"content" json:"content"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	// Viewed stored read flag; nothing sets it yet
	Viewed bool `bson:"viewed" json:"viewed"`
}

// NewChat chat stamped with server time
func NewChat(sentBy, content string, now time.Time) Chat {
	return Chat{
		ID:        primitive.NewObjectIDFromTimestamp(now),
		SentBy:    sentBy,
		Content:   content,
		Timestamp: now,
	}
}

// SortedParticipants the two ids in ascending order
func SortedParticipants(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}

// ParticipantID order independent key of a member pair
func ParticipantID(a, b string) string {
	return strings.Join(SortedParticipants(a, b), "_")
}

// HasParticipant reports whether memberID is part of c
func (c *Conversation) HasParticipant(memberID string) bool {
	for _, p := range c.Participants {
		if p == memberID {
			return true
		}
	}
	return false
}

// Peer the other participant
func (c *Conversation) Peer(memberID string) string {
	for _, p := range c.Participants {
		if p != memberID {
			return p
		}
	}
	return ""
}

// LastChat most recent chat or nil
func (c *Conversation) LastChat() *Chat {
	if len(c.Chats) == 0 {
		return nil
	}
	return &c.Chats[len(c.Chats)-1]
}
