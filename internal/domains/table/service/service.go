package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"bistro/config"
	"bistro/infras/kafka"
	"bistro/infras/otel"
	resModel "bistro/internal/domains/reservation/model"
	resDto "bistro/internal/domains/reservation/model/dto"
	resRepo "bistro/internal/domains/reservation/repository"
	"bistro/internal/domains/table/model"
	"bistro/internal/domains/table/model/dto"
	"bistro/internal/domains/table/repository"
	"bistro/shared"
	"bistro/shared/cache"
	"bistro/shared/constant"
	gDto "bistro/shared/dto"
	"bistro/shared/failure"
	"bistro/shared/timezone"
)

const (
	cacheGetTable    = "table:get"
	cacheGetAllTable = "table:gets"
	cacheCountTable  = "table:count"

	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
	cacheCountReservation  = "reservation:count"
)

type Table interface {
	Create(ctx context.Context, req dto.CreateTableRequest) (dto.TableResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams) (dto.GetTablesResponse, error)
	Get(ctx context.Context, id string) (dto.TableResponse, error)
	Seat(ctx context.Context, tableID string, req dto.SeatReservationRequest) (dto.TableResponse, error)
	Unseat(ctx context.Context, tableID string) (dto.TableResponse, error)
}

type serviceImpl struct {
	repo            repository.Table
	reservationRepo resRepo.Reservation
	cfg             *config.Config
	cache           cache.RedisCache
	kafka           kafka.Client
	otel            otel.Otel
}

func New(repo repository.Table, reservationRepo resRepo.Reservation, cfg *config.Config, cache cache.RedisCache, kafkaClient kafka.Client, otel otel.Otel) Table {
	return &serviceImpl{
		repo:            repo,
		reservationRepo: reservationRepo,
		cfg:             cfg,
		cache:           cache,
		kafka:           kafkaClient,
		otel:            otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateTableRequest) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.ReservationID != constant.Empty {
		exists, err := s.reservationRepo.Exist(ctx, shared.FilterByID(req.ReservationID, resModel.FieldID, resModel.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to check if reservation exists")

			return res, fmt.Errorf("failed to check if reservation exists: %w", err)
		}

		if !exists {
			return res, failure.BadRequestFromString(fmt.Sprintf("reservation %s does not exist", req.ReservationID)) //nolint:wrapcheck
		}
	}

	table := req.ToModel()

	if err = s.repo.Insert(ctx, table); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch string(pqErr.Code) {
			case constant.PqErrorCodeUniqueViolation:
				return res, failure.Conflict(fmt.Sprintf("table %s already exists", req.Name)) //nolint:wrapcheck
			case constant.PqErrorCodeFkViolation:
				// The existence check above can lose a race with a delete.
				return res, failure.BadRequestFromString(fmt.Sprintf("reservation %s does not exist", req.ReservationID)) //nolint:wrapcheck
			}
		}

		log.Error().Err(err).Msg("failed to create table")

		return res, fmt.Errorf("failed to create table: %w", err)
	}

	res.FromModel(table)

	s.invalidateLists(ctx)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams) (res dto.GetTablesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	// Tables list by name; the date query parameter is accepted but has no
	// filtering effect.
	if params.SortBy == constant.Empty {
		params.SortBy = model.FieldName
		params.SortDir = gDto.SortDirAsc
	}

	filter := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd, Filters: []any{}}

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllTable, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for tables")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count tables")

		return res, fmt.Errorf("failed to count tables: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get tables")

		return res, fmt.Errorf("failed to get tables: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save tables to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetTable, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for table")

		return res, nil
	}

	table, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get table")

		return res, fmt.Errorf("failed to get table: %w", err)
	}

	if table.ID == constant.Empty {
		return res, failure.NotFound(fmt.Sprintf("table %s not found", id)) //nolint:wrapcheck
	}

	res.FromModel(table)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save table to cache")
		}
	}()

	return res, nil
}

// Seat assigns a reservation to a table. The gate runs in order: the table
// must exist, the reservation must exist, the table must be free, the party
// must fit, and the reservation must be seatable. Both writes happen in one
// transaction so a failure cannot strand a seated reservation without a
// table.
func (s *serviceImpl) Seat(ctx context.Context, tableID string, req dto.SeatReservationRequest) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Seat")
	defer scope.End()
	defer scope.TraceIfError(err)

	tableFilter := shared.FilterByID(tableID, model.FieldID, model.TableName)

	table, err := s.repo.Get(ctx, tableFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get table")

		return res, fmt.Errorf("failed to get table: %w", err)
	}

	if table.ID == constant.Empty {
		return res, failure.NotFound(fmt.Sprintf("table %s not found", tableID)) //nolint:wrapcheck
	}

	reservationFilter := shared.FilterByID(req.ReservationID, resModel.FieldID, resModel.TableName)

	reservation, err := s.reservationRepo.Get(ctx, reservationFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, failure.NotFound(fmt.Sprintf("reservation %s not found", req.ReservationID)) //nolint:wrapcheck
	}

	if table.Occupied() {
		return res, failure.Conflict(fmt.Sprintf("table %s is already occupied", table.Name)) //nolint:wrapcheck
	}

	if table.Capacity < reservation.People {
		return res, failure.Conflict(fmt.Sprintf("table %s cannot seat reservation %s: party of %d exceeds capacity %d", table.Name, reservation.ID, reservation.People, table.Capacity)) //nolint:wrapcheck
	}

	if reservation.Status == resModel.StatusSeated {
		return res, failure.Conflict(fmt.Sprintf("reservation %s is already seated at another table", reservation.ID)) //nolint:wrapcheck
	}

	if reservation.Status == resModel.StatusFinished {
		return res, failure.Conflict(fmt.Sprintf("reservation %s is archived and cannot be seated", reservation.ID)) //nolint:wrapcheck
	}

	if err = reservation.Status.Transition(resModel.StatusSeated); err != nil {
		return res, err
	}

	now := timezone.Now()

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.reservationRepo.UpdateTx(ctx, tx, map[string]any{
			resModel.FieldStatus:    resModel.StatusSeated,
			constant.FieldUpdatedAt: now,
		}, reservationFilter); err != nil {
			return fmt.Errorf("failed to seat reservation: %w", err)
		}

		if err := s.repo.UpdateTx(ctx, tx, map[string]any{
			model.FieldReservationID: reservation.ID,
			constant.FieldUpdatedAt:  now,
		}, tableFilter); err != nil {
			return fmt.Errorf("failed to occupy table: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to seat table")

		return res, err
	}

	table.ReservationID = &reservation.ID
	table.UpdatedAt = now
	res.FromModel(table)

	reservation.Status = resModel.StatusSeated
	reservation.UpdatedAt = now

	s.publishReservationEvent(ctx, resDto.EventSeated, reservation)
	s.invalidateSeating(ctx, table.ID, reservation.ID)

	return res, nil
}

// Unseat clears an occupied table and finishes its reservation, in one
// transaction.
func (s *serviceImpl) Unseat(ctx context.Context, tableID string) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Unseat")
	defer scope.End()
	defer scope.TraceIfError(err)

	tableFilter := shared.FilterByID(tableID, model.FieldID, model.TableName)

	table, err := s.repo.Get(ctx, tableFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get table")

		return res, fmt.Errorf("failed to get table: %w", err)
	}

	if table.ID == constant.Empty {
		return res, failure.NotFound(fmt.Sprintf("table %s not found", tableID)) //nolint:wrapcheck
	}

	if !table.Occupied() {
		return res, failure.BadRequestFromString(fmt.Sprintf("table %s is not occupied", table.Name)) //nolint:wrapcheck
	}

	reservationID := *table.ReservationID
	reservationFilter := shared.FilterByID(reservationID, resModel.FieldID, resModel.TableName)

	reservation, err := s.reservationRepo.Get(ctx, reservationFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	now := timezone.Now()

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.reservationRepo.UpdateTx(ctx, tx, map[string]any{
			resModel.FieldStatus:    resModel.StatusFinished,
			constant.FieldUpdatedAt: now,
		}, reservationFilter); err != nil {
			return fmt.Errorf("failed to finish reservation: %w", err)
		}

		if err := s.repo.UpdateTx(ctx, tx, map[string]any{
			model.FieldReservationID: nil,
			constant.FieldUpdatedAt:  now,
		}, tableFilter); err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to unseat table")

		return res, err
	}

	table.ReservationID = nil
	table.UpdatedAt = now
	res.FromModel(table)

	if reservation.ID != constant.Empty {
		reservation.Status = resModel.StatusFinished
		reservation.UpdatedAt = now

		s.publishReservationEvent(ctx, resDto.EventFinished, reservation)
	}

	s.invalidateSeating(ctx, table.ID, reservationID)

	return res, nil
}

func (s *serviceImpl) publishReservationEvent(ctx context.Context, eventType string, reservation resModel.Reservation) {
	go func() {
		c := context.WithoutCancel(ctx)

		payload := resDto.ReservationResponse{}
		payload.FromModel(reservation)

		event := kafka.Message{
			Key: reservation.ID,
			Value: resDto.ReservationEvent{
				Type:        eventType,
				Reservation: payload,
				At:          timezone.Now(),
			},
		}

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topic.ReservationEvents, event); err != nil {
			log.Error().Err(err).Str("event", eventType).Msg("failed to publish reservation event")
		}
	}()
}

func (s *serviceImpl) invalidateSeating(ctx context.Context, tableID, reservationID string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetTable, tableID)); err != nil {
			log.Error().Err(err).Msg("failed to delete table from cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, reservationID)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservation from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllTable)
		shared.InvalidateCaches(c, s.cache, cacheCountTable)
		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
	}()
}

func (s *serviceImpl) invalidateLists(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllTable)
		shared.InvalidateCaches(c, s.cache, cacheCountTable)
	}()
}
