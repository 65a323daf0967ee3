package main

import (
	"smart_cycle_market/internal/api/router"

	"github.com/gofiber/fiber/v2"
)

// 此程式用於 init swagger
// swag init -g main.go -o ./docs
func main() {
	app := fiber.New()

	router.RegisterRoutes(app, "*", router.Handlers{
		IsAuth: func(c *fiber.Ctx) error { return c.Next() },
	})
}
