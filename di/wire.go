//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"bistro/config"
	"bistro/infras/kafka"
	"bistro/infras/otel"
	"bistro/infras/postgres"
	"bistro/infras/redis"
	"bistro/shared/cache"
	"bistro/transport/http"
	"bistro/transport/http/middleware"
	"bistro/transport/http/router"

	reservationRepository "bistro/internal/domains/reservation/repository"
	reservationService "bistro/internal/domains/reservation/service"
	tableRepository "bistro/internal/domains/table/repository"
	tableService "bistro/internal/domains/table/service"

	reservationHandler "bistro/internal/handlers/reservation"
	tableHandler "bistro/internal/handlers/table"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	reservationService.New,
)

var tableDomain = wire.NewSet(
	tableRepository.New,
	tableService.New,
)

var domains = wire.NewSet(
	reservationDomain,
	tableDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	reservationHandler.New,
	tableHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
