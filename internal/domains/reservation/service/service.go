package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"bistro/config"
	"bistro/infras/kafka"
	"bistro/infras/otel"
	"bistro/internal/domains/reservation/model"
	"bistro/internal/domains/reservation/model/dto"
	"bistro/internal/domains/reservation/repository"
	"bistro/shared"
	"bistro/shared/cache"
	"bistro/shared/constant"
	gDto "bistro/shared/dto"
	"bistro/shared/failure"
	"bistro/shared/timezone"
)

const (
	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
	cacheCountReservation  = "reservation:count"
)

type Reservation interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, query dto.ReservationQuery) (dto.GetReservationsResponse, error)
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	Update(ctx context.Context, req dto.UpdateReservationRequest, id string) (dto.ReservationResponse, error)
	UpdateStatus(ctx context.Context, id, status string) (dto.ReservationResponse, error)
}

type serviceImpl struct {
	repo  repository.Reservation
	cfg   *config.Config
	cache cache.RedisCache
	kafka kafka.Client
	otel  otel.Otel
}

func New(repo repository.Reservation, cfg *config.Config, cache cache.RedisCache, kafkaClient kafka.Client, otel otel.Otel) Reservation {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		kafka: kafkaClient,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	reservation, err := req.ToModel()
	if err != nil {
		log.Error().Err(err).Msg("failed to parse reservation request")

		return res, err
	}

	if err = validateSchedule(s.cfg, reservation.Date, reservation.Time); err != nil {
		return res, err
	}

	if err = s.repo.Insert(ctx, reservation); err != nil {
		log.Error().Err(err).Msg("failed to create reservation")

		return res, fmt.Errorf("failed to create reservation: %w", err)
	}

	res.FromModel(reservation)

	s.publish(ctx, dto.EventCreated, res)
	s.invalidateLists(ctx)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, query dto.ReservationQuery) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := buildListFilter(&params, query)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	total, err := s.count(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) count(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountReservation, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetReservation, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		return res, nil
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, failure.NotFound(fmt.Sprintf("reservation %s not found", id)) //nolint:wrapcheck
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateReservationRequest, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	existing, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if existing.ID == constant.Empty {
		return res, failure.NotFound(fmt.Sprintf("reservation %s not found", id)) //nolint:wrapcheck
	}

	if existing.Status != model.StatusBooked {
		return res, failure.Conflict(fmt.Sprintf("a %s reservation cannot be edited", existing.Status)) //nolint:wrapcheck
	}

	if req.ReservationID != constant.Empty && req.ReservationID != existing.ID {
		return res, failure.BadRequestFromString("reservation_id cannot be changed") //nolint:wrapcheck
	}

	if req.CreatedAt != constant.Empty && req.CreatedAt != timezone.Format(existing.CreatedAt, constant.DateFormat) {
		return res, failure.BadRequestFromString("created_at cannot be changed") //nolint:wrapcheck
	}

	fields, err := req.Fields()
	if err != nil {
		return res, err
	}

	date, _ := fields[model.FieldDate].(time.Time)
	clock, _ := fields[model.FieldTime].(string)

	if err = validateSchedule(s.cfg, date, clock); err != nil {
		return res, err
	}

	fields[constant.FieldUpdatedAt] = timezone.Now()

	if err = s.repo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update reservation")

		return res, fmt.Errorf("failed to update reservation: %w", err)
	}

	updated, err := s.repo.Get(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("failed to get updated reservation: %w", err)
	}

	res.FromModel(updated)

	s.publish(ctx, dto.EventUpdated, res)
	s.invalidate(ctx, id)

	return res, nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, id, status string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	existing, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if existing.ID == constant.Empty {
		return res, failure.NotFound(fmt.Sprintf("reservation %s not found", id)) //nolint:wrapcheck
	}

	next, err := model.ParseStatus(status)
	if err != nil {
		return res, err
	}

	if err = existing.Status.Transition(next); err != nil {
		return res, err
	}

	fields := map[string]any{
		model.FieldStatus:       next,
		constant.FieldUpdatedAt: timezone.Now(),
	}

	if err = s.repo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update reservation status")

		return res, fmt.Errorf("failed to update reservation status: %w", err)
	}

	existing.Status = next
	existing.UpdatedAt = timezone.Now()
	res.FromModel(existing)

	s.publish(ctx, statusEvent(next), res)
	s.invalidate(ctx, id)

	return res, nil
}

func statusEvent(status model.Status) string {
	switch status {
	case model.StatusSeated:
		return dto.EventSeated
	case model.StatusFinished:
		return dto.EventFinished
	case model.StatusCancelled:
		return dto.EventCancelled
	default:
		return dto.EventUpdated
	}
}

// buildListFilter maps validated query input onto the list semantics:
// a date filter excludes finished reservations and sorts by time, field
// filters match as case-insensitive substrings sorted by newest date, and an
// empty query lists everything by ascending identifier.
func buildListFilter(params *gDto.QueryParams, query dto.ReservationQuery) gDto.FilterGroup {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	switch {
	case query.Date != constant.Empty:
		filter.Filters = append(filter.Filters,
			gDto.Filter{
				Field:    model.FieldDate,
				Operator: gDto.FilterOperatorEq,
				Value:    query.Date,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorNotEq,
				Value:    model.StatusFinished,
				Table:    model.TableName,
			},
		)

		if params.SortBy == constant.Empty {
			params.SortBy = model.FieldTime
			params.SortDir = gDto.SortDirAsc
		}
	case len(query.Fields) > 0:
		for _, field := range dto.QueryFields {
			value, ok := query.Fields[field]
			if !ok {
				continue
			}

			filter.Filters = append(filter.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorContains,
				Value:    value,
				Table:    model.TableName,
			})
		}

		if params.SortBy == constant.Empty {
			params.SortBy = model.FieldDate
			params.SortDir = gDto.SortDirDesc
		}
	default:
		if params.SortBy == constant.Empty {
			params.SortBy = model.FieldID
			params.SortDir = gDto.SortDirAsc
		}
	}

	return filter
}

func (s *serviceImpl) publish(ctx context.Context, eventType string, res dto.ReservationResponse) {
	go func() {
		c := context.WithoutCancel(ctx)

		event := kafka.Message{
			Key: res.ReservationID,
			Value: dto.ReservationEvent{
				Type:        eventType,
				Reservation: res,
				At:          timezone.Now(),
			},
		}

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topic.ReservationEvents, event); err != nil {
			log.Error().Err(err).Str("event", eventType).Msg("failed to publish reservation event")
		}
	}()
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservation from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
	}()
}

func (s *serviceImpl) invalidateLists(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
	}()
}
