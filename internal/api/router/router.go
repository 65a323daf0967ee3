package router

import (
	"smart_cycle_market/internal/api/handlers"
	chatapp "smart_cycle_market/internal/chat/app"
	chatrouter "smart_cycle_market/internal/chat/router"
	memberapp "smart_cycle_market/internal/member/app"
	memberrouter "smart_cycle_market/internal/member/router"
	productapp "smart_cycle_market/internal/product/app"
	productrouter "smart_cycle_market/internal/product/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// Handlers everything the market service routes to
type Handlers struct {
	Member        *memberapp.MemberHandler
	IsAuth        fiber.Handler
	Product       *productapp.ProductHandler
	Authenticator *chatapp.Authenticator
	ChatWebsocket *chatapp.ChatWebsocketHandler
	Conversation  *chatapp.ConversationHandler
}

// RegisterRoutes 注册所有路由
// @title Smart Cycle Market API
// @version 1.0
// @description Marketplace for used goods with real-time buyer/seller chat
// @host localhost:8000
// @BasePath /
func RegisterRoutes(app *fiber.App, corsOrigin string, h Handlers) {
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/", handlers.ConnectCheck)
	app.Post("/debug", h.IsAuth, handlers.DebugLogFlag)

	memberrouter.RegisterRoutes(app, h.IsAuth, h.Member)
	productrouter.RegisterRoutes(app, h.IsAuth, h.Product)
	chatrouter.RegisterRoutes(app, h.IsAuth, h.Authenticator, h.ChatWebsocket, h.Conversation)
}
