package services

import (
	"github.com/ghuser/supplytrack/pkg/app"
	"github.com/ghuser/supplytrack/pkg/cache"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Item *ItemService
}

// New wires all item application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	var bus EventPublisher
	if a.EventBus != nil {
		bus = a.EventBus
	}
	return &Services{
		Item: NewItemService(a.Store, cache.NewItemCache(a.Redis), bus, a.Logger),
	}
}
