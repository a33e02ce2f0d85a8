package internal

import (
	"net/http"

	"gerritwatch/internal/controllers"
	"gerritwatch/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/state", http.HandlerFunc(apiController.GetState))
	routers.Get("/delta", http.HandlerFunc(apiController.GetDelta))
	routers.Get("/urgent", http.HandlerFunc(apiController.GetUrgent))
	routers.Post("/cycle", http.HandlerFunc(apiController.RunCycle))
	return routers
}
