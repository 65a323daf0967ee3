package app

import (
	"context"
	"errors"

	"smart_cycle_market/internal/chat/domain"
	"smart_cycle_market/internal/chat/repository"
	errprocess "smart_cycle_market/pkg/err"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MemberDirectory public profile lookup for chat views
type MemberDirectory interface {
	Profiles(ctx context.Context, memberIDs []string) (map[string]domain.Profile, error)
}

// ConversationUseCase conversation REST operations
type ConversationUseCase struct {
	convRepo repository.ConversationRepository
	members  MemberDirectory
}

// NewConversationUseCase create ConversationUseCase
func NewConversationUseCase(convRepo repository.ConversationRepository, members MemberDirectory) *ConversationUseCase {
	return &ConversationUseCase{convRepo: convRepo, members: members}
}

// StartWith conversation id between memberID and peerID, created on first contact
func (uc *ConversationUseCase) StartWith(ctx context.Context, memberID, peerID string) (string, error) {
	if _, err := uuid.Parse(peerID); err != nil {
		return "", errprocess.Unprocessable("Invalid peer id!")
	}
	if peerID == memberID {
		return "", errprocess.Unprocessable("You cannot chat with yourself!")
	}

	profiles, err := uc.members.Profiles(ctx, []string{peerID})
	if err != nil {
		return "", errprocess.Internal(err)
	}
	if _, ok := profiles[peerID]; !ok {
		return "", errprocess.NotFound("User not found!")
	}

	convID, err := uc.convRepo.FindOrCreate(ctx, memberID, peerID)
	if err != nil {
		return "", errprocess.Internal(err)
	}
	return convID, nil
}

// Chats full history of a conversation memberID takes part in
func (uc *ConversationUseCase) Chats(ctx context.Context, memberID, conversationID string) (*domain.ConversationView, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if errors.Is(err, domain.ErrConversationNotFound) {
		return nil, errprocess.NotFound("Conversation not found!")
	}
	if err != nil {
		return nil, errprocess.Internal(err)
	}
	if !conv.HasParticipant(memberID) {
		return nil, errprocess.Wrap(fiber.StatusForbidden, "You are not part of this conversation!", domain.ErrNotParticipant)
	}

	profiles, err := uc.members.Profiles(ctx, conv.Participants)
	if err != nil {
		return nil, errprocess.Internal(err)
	}

	view := &domain.ConversationView{
		ID:          conv.ID.Hex(),
		Chats:       make([]domain.ChatView, 0, len(conv.Chats)),
		PeerProfile: profileOf(profiles, conv.Peer(memberID)),
	}
	for _, chat := range conv.Chats {
		view.Chats = append(view.Chats, chatView(chat, profiles))
	}
	return view, nil
}

// List conversations of memberID, most recent activity first
func (uc *ConversationUseCase) List(ctx context.Context, memberID string) ([]domain.ConversationSummary, error) {
	convs, err := uc.convRepo.FindByParticipant(ctx, memberID)
	if err != nil {
		return nil, errprocess.Internal(err)
	}

	ids := make([]string, 0, len(convs)+1)
	ids = append(ids, memberID)
	for i := range convs {
		ids = append(ids, convs[i].Peer(memberID))
	}

	profiles, err := uc.members.Profiles(ctx, ids)
	if err != nil {
		return nil, errprocess.Internal(err)
	}

	out := make([]domain.ConversationSummary, 0, len(convs))
	for i := range convs {
		summary := domain.ConversationSummary{
			ID:          convs[i].ID.Hex(),
			PeerProfile: profileOf(profiles, convs[i].Peer(memberID)),
			UpdatedAt:   convs[i].UpdatedAt,
		}
		if last := convs[i].LastChat(); last != nil {
			v := chatView(*last, profiles)
			summary.LastChat = &v
		}
		out = append(out, summary)
	}
	return out, nil
}

func chatView(chat domain.Chat, profiles map[string]domain.Profile) domain.ChatView {
	return domain.ChatView{
		ID:     chat.ID.Hex(),
		Time:   chat.Timestamp,
		Text:   chat.Content,
		Viewed: chat.Viewed,
		User:   profileOf(profiles, chat.SentBy),
	}
}

// profileOf falls back to a bare id when the member is gone
func profileOf(profiles map[string]domain.Profile, memberID string) domain.Profile {
	if p, ok := profiles[memberID]; ok {
		return p
	}
	return domain.Profile{ID: memberID}
}
