package app

import (
	"smart_cycle_market/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// ConversationHandler conversation HTTP endpoints
type ConversationHandler struct {
	uc *ConversationUseCase
}

// NewConversationHandler create ConversationHandler
func NewConversationHandler(uc *ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{uc: uc}
}

// StartWith get or create the conversation with a peer
// @Summary Get or create a conversation
// @Description Returns the id of the conversation between the caller and peerId, creating it on first contact
// @Tags Conversation
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param peerId path string true "Peer member id"
// @Success 200 {object} map[string]string "conversationId"
// @Failure 404 {object} map[string]string "User not found!"
// @Failure 422 {object} map[string]string "Invalid peer id!"
// @Router /conversation/with/{peerId} [get]
func (h *ConversationHandler) StartWith(c *fiber.Ctx) error {
	convID, err := h.uc.StartWith(c.UserContext(), middlewares.MemberID(c), c.Params("peerId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"conversationId": convID})
}

// Chats conversation history
// @Summary Conversation history
// @Tags Conversation
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param conversationId path string true "Conversation id"
// @Success 200 {object} domain.ConversationView
// @Failure 403 {object} map[string]string "You are not part of this conversation!"
// @Failure 404 {object} map[string]string "Conversation not found!"
// @Router /conversation/chats/{conversationId} [get]
func (h *ConversationHandler) Chats(c *fiber.Ctx) error {
	view, err := h.uc.Chats(c.UserContext(), middlewares.MemberID(c), c.Params("conversationId"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// List caller's conversations
// @Summary List conversations
// @Tags Conversation
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {array} domain.ConversationSummary
// @Router /conversation/list [get]
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"conversations": list})
}
