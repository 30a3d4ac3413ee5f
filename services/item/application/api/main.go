package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/supplytrack/pkg/app"
	"github.com/ghuser/supplytrack/pkg/errhttp"
	"github.com/ghuser/supplytrack/services/item/application/handlers"
	appsvcs "github.com/ghuser/supplytrack/services/item/application/services"
)

// ItemRoutes registers item endpoints on the provided chi router.
func ItemRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	errs := errhttp.NewWriter(a.IsProduction(), a.Logger)

	r.Route("/items", func(r chi.Router) {
		r.Post("/", handlers.NewPostItemHandler(svcs, errs).Execute)
		r.Get("/", handlers.NewListItemsHandler(svcs, errs).Execute)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.NewGetItemHandler(svcs, errs).Execute)
			r.Put("/", handlers.NewPutItemHandler(svcs, errs).Execute)

			r.Post("/events", handlers.NewPostEventHandler(svcs, errs).Execute)
			r.Get("/events", handlers.NewListEventsHandler(svcs, errs).Execute)
			r.Get("/events/last", handlers.NewGetLastEventHandler(svcs, errs).Execute)
		})
	})
}
