package router

import (
	"bistro/internal/handlers/reservation"
	"bistro/internal/handlers/table"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Reservation reservation.Handler
	Table       table.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Reservation.Router(routerGroup)
		r.DomainHandlers.Table.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
