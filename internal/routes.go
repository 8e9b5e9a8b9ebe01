package internal

import (
	"storypanel/internal/controllers"
	"storypanel/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/frame", apiController.GetFrame)
	routers.Post("/next", apiController.Next)
	routers.Post("/prev", apiController.Previous)
	routers.Post("/tap", apiController.Tap)
	routers.Post("/element", apiController.ActivateElement)
	routers.Get("/stats", apiController.GetStats)
	return routers
}
