package router

import (
	"smart_cycle_market/internal/product/app"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes /product routes, browsing is public
func RegisterRoutes(r *fiber.App, isAuth fiber.Handler, productHandler *app.ProductHandler) {
	productRoutes := r.Group("/product")

	productRoutes.Get("/detail/:id", productHandler.Detail)
	productRoutes.Get("/by-category/:category", productHandler.ByCategory)
	productRoutes.Get("/latest", productHandler.Latest)
	productRoutes.Get("/search", productHandler.Search)

	productRoutes.Post("/list", isAuth, productHandler.List)
	productRoutes.Get("/listings", isAuth, productHandler.Listings)
	productRoutes.Patch("/:id", isAuth, productHandler.Update)
	productRoutes.Delete("/image/:productId/:imageId", isAuth, productHandler.RemoveImage)
	productRoutes.Delete("/:id", isAuth, productHandler.Remove)
}
