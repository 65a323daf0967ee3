package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"smart_cycle_market/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryConversationRepository process local ConversationRepository with the same
// uniqueness and membership rules as the mongo one
type memoryConversationRepository struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*domain.Conversation
	byKey map[string]primitive.ObjectID
	now   func() time.Time
}

// NewMemoryConversationRepository in memory store for tests and local runs
func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{
		byID:  make(map[primitive.ObjectID]*domain.Conversation),
		byKey: make(map[string]primitive.ObjectID),
		now:   time.Now,
	}
}

func (r *memoryConversationRepository) EnsureIndexes(context.Context) error { return nil }

func (r *memoryConversationRepository) FindOrCreate(_ context.Context, memberA, memberB string) (string, error) {
	if memberA == memberB {
		return "", domain.ErrSelfConversation
	}

	key := domain.ParticipantID(memberA, memberB)

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[key]; ok {
		return id.Hex(), nil
	}

	now := r.now()
	c := &domain.Conversation{
		ID:            primitive.NewObjectID(),
		Participants:  domain.SortedParticipants(memberA, memberB),
		ParticipantID: key,
		Chats:         []domain.Chat{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.byID[c.ID] = c
	r.byKey[key] = c.ID
	return c.ID.Hex(), nil
}

func (r *memoryConversationRepository) AppendChat(_ context.Context, conversationID, recipient string, chat domain.Chat) error {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return domain.ErrConversationNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[oid]
	if !ok || !c.HasParticipant(chat.SentBy) || !c.HasParticipant(recipient) {
		return domain.ErrConversationNotFound
	}
	c.Chats = append(c.Chats, chat)
	c.UpdatedAt = chat.Timestamp
	return nil
}

func (r *memoryConversationRepository) FindByID(_ context.Context, conversationID string) (*domain.Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, domain.ErrConversationNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[oid]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return copyConversation(c, len(c.Chats)), nil
}

func (r *memoryConversationRepository) FindByParticipant(_ context.Context, memberID string) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(memberID) {
			out = append(out, *copyConversation(c, 1))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// copyConversation copy of c holding at most the last n chats
func copyConversation(c *domain.Conversation, n int) *domain.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	start := len(c.Chats) - n
	if start < 0 {
		start = 0
	}
	cp.Chats = append([]domain.Chat{}, c.Chats[start:]...)
	return &cp
}
