package router

import (
	"context"

	"smart_cycle_market/internal/chat/app"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes conversation REST routes behind isAuth and the websocket gateway behind the handshake authenticator
func RegisterRoutes(
	r *fiber.App,
	isAuth fiber.Handler,
	authenticator *app.Authenticator,
	chatWebsocket *app.ChatWebsocketHandler,
	conversationHandler *app.ConversationHandler,
) {
	r.Get("/ws", authenticator.UpgradeMiddleware(), websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	conversationRoutes := r.Group("/conversation", isAuth)
	conversationRoutes.Get("/with/:peerId", conversationHandler.StartWith)
	conversationRoutes.Get("/chats/:conversationId", conversationHandler.Chats)
	conversationRoutes.Get("/list", conversationHandler.List)
}
