package app

import (
	"context"

	"smart_cycle_market/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// EnsureIndexes mock
func (m *MockConversationRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// FindOrCreate mock
func (m *MockConversationRepository) FindOrCreate(ctx context.Context, memberA, memberB string) (string, error) {
	args := m.Called(ctx, memberA, memberB)
	return args.String(0), args.Error(1)
}

// AppendChat mock
func (m *MockConversationRepository) AppendChat(ctx context.Context, conversationID, recipient string, chat domain.Chat) error {
	args := m.Called(ctx, conversationID, recipient, chat)
	return args.Error(0)
}

// FindByID mock
func (m *MockConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByParticipant mock
func (m *MockConversationRepository) FindByParticipant(ctx context.Context, memberID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMemberDirectory Mock MemberDirectory
type MockMemberDirectory struct {
	mock.Mock
}

// Profiles mock
func (m *MockMemberDirectory) Profiles(ctx context.Context, memberIDs []string) (map[string]domain.Profile, error) {
	args := m.Called(ctx, memberIDs)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]domain.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDeliverer Mock Deliverer
type MockDeliverer struct {
	mock.Mock
}

// Deliver mock
func (m *MockDeliverer) Deliver(memberID string, payload interface{}) int {
	args := m.Called(memberID, payload)
	return args.Int(0)
}
